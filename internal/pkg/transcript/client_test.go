package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "watch url", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "watch url with extra params", input: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&list=PL123", want: "dQw4w9WgXcQ"},
		{name: "short link", input: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "shorts", input: "https://www.youtube.com/shorts/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "embed", input: "https://www.youtube.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "mobile host", input: "https://m.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "bare id", input: "dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "trailing slash on short link", input: "https://youtu.be/dQw4w9WgXcQ/", want: "dQw4w9WgXcQ"},
		{name: "empty", input: "", wantErr: true},
		{name: "whitespace only", input: "   ", wantErr: true},
		{name: "wrong host", input: "https://vimeo.com/12345678901", wantErr: true},
		{name: "watch without v param", input: "https://www.youtube.com/watch", wantErr: true},
		{name: "id too short", input: "https://youtu.be/short", wantErr: true},
		{name: "id with invalid chars", input: "https://www.youtube.com/watch?v=dQw4w9WgXc!", wantErr: true},
		{name: "not a url", input: "just some text", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractVideoID(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
