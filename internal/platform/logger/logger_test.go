package logger

import "testing"

func TestSanitizeKVs(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  interface{}
		want func(interface{}) bool
	}{
		{
			name: "password redacted",
			key:  "password",
			val:  "hunter2",
			want: func(v interface{}) bool { return v == "[REDACTED]" },
		},
		{
			name: "email redacted",
			key:  "Email",
			val:  "a@b.c",
			want: func(v interface{}) bool { return v == "[REDACTED]" },
		},
		{
			name: "user id hashed",
			key:  "user_id",
			val:  "0b8c2d2e-1111-2222-3333-444444444444",
			want: func(v interface{}) bool {
				s, ok := v.(string)
				return ok && len(s) == len("hash:")+12 && s[:5] == "hash:"
			},
		},
		{
			name: "jwt-looking value redacted",
			key:  "header",
			val:  "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig",
			want: func(v interface{}) bool { return v == "[REDACTED]" },
		},
		{
			name: "income masked",
			key:  "income",
			val:  5200.0,
			want: func(v interface{}) bool { return v == "[AMOUNT]" },
		},
		{
			name: "nested goal amount masked",
			key:  "goal",
			val:  map[string]interface{}{"goal_name": "Trip", "target_amount": 900},
			want: func(v interface{}) bool {
				m, ok := v.(map[string]interface{})
				return ok && m["target_amount"] == "[AMOUNT]" && m["goal_name"] == "Trip"
			},
		},
		{
			name: "plain value kept",
			key:  "xp",
			val:  120,
			want: func(v interface{}) bool { return v == 120 },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := sanitizeKVs([]interface{}{tc.key, tc.val})
			if len(out) != 2 {
				t.Fatalf("len(out)=%d want 2", len(out))
			}
			if !tc.want(out[1]) {
				t.Fatalf("unexpected sanitized value: %v", out[1])
			}
		})
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"xp", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %#v", out)
	}
}
