package mentor

import (
	"context"
	"testing"

	"gorm.io/datatypes"

	"github.com/yungbote/wealthquest-backend/internal/data/repos/testutil"
	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/dbctx"
)

func TestAdviceRepoLatest(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	u := testutil.SeedUser(t, ctx, tx, "advice@example.com")
	repo := NewAdviceRepo(db, testutil.Logger(t))

	for _, content := range []string{"save more", "spend less"} {
		row := &types.Advice{
			UserID:   u.ID,
			Content:  content,
			Context:  datatypes.JSON([]byte(`{"level":1}`)),
			Provider: "openai",
		}
		if err := repo.Create(dbc, row); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.Latest(dbc, u.ID, 1)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Latest: expected 1 row, got %d", len(got))
	}
	all, err := repo.Latest(dbc, u.ID, 0)
	if err != nil {
		t.Fatalf("Latest(all): %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Latest(all): expected 2 rows, got %d", len(all))
	}
}
