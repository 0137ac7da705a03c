package services

import (
	"context"
	"testing"

	types "github.com/yungbote/wealthquest-backend/internal/domain"
	"github.com/yungbote/wealthquest-backend/internal/platform/fetch"
)

func TestCatalogFallback(t *testing.T) {
	cases := []struct {
		name    string
		seed    bool
		fail    bool
		want    fetch.Source
		wantErr bool
	}{
		{name: "empty store", want: fetch.SourceFallback, wantErr: true},
		{name: "store down", seed: true, fail: true, want: fetch.SourceFallback, wantErr: true},
		{name: "seeded store", seed: true, want: fetch.SourceRemote},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.seed {
				f.catalogDB.lessons = []*types.Lesson{{ID: "db-1", Title: "From DB", LevelRequired: 1}}
			}
			f.catalogDB.fail.Store(tc.fail)

			r := f.catalog.Lessons(context.Background())
			if r.Source != tc.want || (r.Err != nil) != tc.wantErr {
				t.Fatalf("source=%s err=%v want %s", r.Source, r.Err, tc.want)
			}
			if len(r.Value) == 0 {
				t.Fatalf("no lessons served")
			}
			if tc.want == fetch.SourceRemote && r.Value[0].ID != "db-1" {
				t.Fatalf("served %s want db-1", r.Value[0].ID)
			}
		})
	}
}

func TestCatalogLookupFallsThroughToEmbedded(t *testing.T) {
	f := newFixture(t)
	f.catalogDB.fail.Store(true)

	if l, ok := f.catalog.Lesson(context.Background(), "1"); !ok || l.Title == "" {
		t.Fatalf("embedded lesson missing: %+v", l)
	}
	if c, ok := f.catalog.Challenge(context.Background(), "daily-checkin"); !ok || c.RequirementValue != 1 {
		t.Fatalf("embedded challenge missing: %+v", c)
	}
	if _, ok := f.catalog.Lesson(context.Background(), "nope"); ok {
		t.Fatalf("unknown lesson found")
	}
}
