package translator

import "testing"

func TestSanitize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain object untouched",
			in:   `{"Price": {"$gt": 100}}`,
			want: `{"Price": {"$gt": 100}}`,
		},
		{
			name: "fence with json tag",
			in:   "```json\n{\"Brand\": \"Samsung\"}\n```",
			want: `{"Brand": "Samsung"}`,
		},
		{
			name: "fence without tag",
			in:   "```\n{\"Price\": {\"$lt\": 50}}\n```",
			want: `{"Price": {"$lt": 50}}`,
		},
		{
			name: "tilde fence",
			in:   "~~~json\n{\"Stock\": 5}\n~~~",
			want: `{"Stock": 5}`,
		},
		{
			name: "bare json tag",
			in:   "json {\"Brand\": \"Apple\"}",
			want: `{"Brand": "Apple"}`,
		},
		{
			name: "inline fence",
			in:   "```json{\"Brand\": \"Nokia\"}```",
			want: `{"Brand": "Nokia"}`,
		},
		{
			name: "unclosed fence keeps payload",
			in:   "```json\n{\"Price\": {\"$gt\": 200}}",
			want: `{"Price": {"$gt": 200}}`,
		},
		{
			name: "trailing prose after closing fence dropped",
			in:   "```json\n{\"Brand\": \"Samsung\"}\n```\nHope this helps!",
			want: `{"Brand": "Samsung"}`,
		},
		{
			name: "leading bom and whitespace",
			in:   "\uFEFF  {\"Brand\": \"Sony\"}  ",
			want: `{"Brand": "Sony"}`,
		},
		{
			name: "multiline payload preserved",
			in:   "```json\n{\n  \"Price\": {\"$gte\": 10}\n}\n```",
			want: "{\n  \"Price\": {\"$gte\": 10}\n}",
		},
		{
			name: "payload containing fence text untouched",
			in:   "{\"Note\": \"wrap in ```json fences\"}",
			want: "{\"Note\": \"wrap in ```json fences\"}",
		},
		{
			name: "empty fence",
			in:   "```json\n```",
			want: "",
		},
		{
			name: "whitespace only",
			in:   "  \n\t ",
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if got != tt.want {
				t.Fatalf("Sanitize() got %q, want %q", got, tt.want)
			}
			if again := Sanitize(got); again != got {
				t.Fatalf("Sanitize() not idempotent: %q became %q", got, again)
			}
		})
	}
}
