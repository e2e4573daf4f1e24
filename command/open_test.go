package command_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kroma-labs/readerbridge/command"
)

func TestRegisterOpener(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		openErr    error
		wantOpened string
		wantErr    string
	}{
		{
			name:       "given https url, then opened",
			url:        "https://example.com/post/1",
			wantOpened: "https://example.com/post/1",
		},
		{
			name:    "given file url, then refused",
			url:     "file:///etc/passwd",
			wantErr: "Refusing to open non-web URL: file:///etc/passwd",
		},
		{
			name:    "given relative url, then refused",
			url:     "/post/1",
			wantErr: "Refusing to open non-web URL: /post/1",
		},
		{
			name:       "given opener failure, then failure text",
			url:        "http://example.com",
			openErr:    errors.New("no handler"),
			wantOpened: "http://example.com",
			wantErr:    "Failed to open URL: no handler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened string
			r := command.NewRegistry(zerolog.Nop())
			require.NoError(t, command.RegisterOpener(r, func(_ context.Context, target string) error {
				opened = target
				return tt.openErr
			}))

			got, err := r.Invoke(context.Background(), command.OpenExternal, []byte(`{"url":"`+tt.url+`"}`))

			assert.Equal(t, tt.wantOpened, opened)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}
