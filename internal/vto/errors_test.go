package vto

import "testing"

func TestNormalizeErrorBody(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		statusText string
		body       string
		want       string
	}{
		{
			name:       "validation list with field paths",
			statusCode: 422,
			statusText: "Unprocessable Entity",
			body:       `{"detail":[{"loc":["body","clothes"],"msg":"too short","type":"value_error"}]}`,
			want:       "body.clothes: too short",
		},
		{
			name:       "validation list with single segment",
			statusCode: 422,
			statusText: "Unprocessable Entity",
			body:       `{"detail":[{"loc":["clothes"],"msg":"too short"}]}`,
			want:       "clothes: too short",
		},
		{
			name:       "validation list with numeric loc segment",
			statusCode: 422,
			statusText: "Unprocessable Entity",
			body:       `{"detail":[{"loc":["clothes",0],"msg":"invalid image"}]}`,
			want:       "clothes.0: invalid image",
		},
		{
			name:       "multiple validation entries joined",
			statusCode: 422,
			statusText: "Unprocessable Entity",
			body:       `{"detail":[{"loc":["selfie"],"msg":"missing"},{"loc":["posture"],"msg":"missing"}]}`,
			want:       "selfie: missing; posture: missing",
		},
		{
			name:       "string detail verbatim",
			statusCode: 403,
			statusText: "Forbidden",
			body:       `{"detail":"invalid api key"}`,
			want:       "invalid api key",
		},
		{
			name:       "entry without loc keeps bare message",
			statusCode: 422,
			statusText: "Unprocessable Entity",
			body:       `{"detail":[{"loc":[],"msg":"something went wrong"}]}`,
			want:       "something went wrong",
		},
		{
			name:       "unparseable body falls back to status",
			statusCode: 502,
			statusText: "Bad Gateway",
			body:       `<html>upstream exploded</html>`,
			want:       "502 Bad Gateway",
		},
		{
			name:       "empty detail falls back to status",
			statusCode: 500,
			statusText: "Internal Server Error",
			body:       `{"detail":""}`,
			want:       "500 Internal Server Error",
		},
		{
			name:       "empty body falls back to status",
			statusCode: 404,
			statusText: "Not Found",
			body:       ``,
			want:       "404 Not Found",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeErrorBody(tc.statusCode, tc.statusText, []byte(tc.body))
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
