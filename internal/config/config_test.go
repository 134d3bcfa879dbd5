package config

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestOptionsFromJSON(t *testing.T) {
	t.Parallel()

	raw := json.RawMessage(`{
		"lsp": {
			"serverPath": "/opt/serve-d/serve-d",
			"serverArgs": ["--loglevel", "trace"]
		},
		"unrelated": {"ignored": true}
	}`)

	opts, err := OptionsFromJSON(raw)
	if err != nil {
		t.Fatalf("OptionsFromJSON: %v", err)
	}
	if opts.ServerPath != "/opt/serve-d/serve-d" {
		t.Errorf("ServerPath = %q", opts.ServerPath)
	}
	if want := []string{"--loglevel", "trace"}; !reflect.DeepEqual(opts.ServerArgs, want) {
		t.Errorf("ServerArgs = %v, want %v", opts.ServerArgs, want)
	}
}

func TestOptionsFromJSONAbsentFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{"empty payload", nil},
		{"empty object", json.RawMessage(`{}`)},
		{"lsp without overrides", json.RawMessage(`{"lsp": {}}`)},
	}

	for _, tt := range tests {
		opts, err := OptionsFromJSON(tt.raw)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if opts.ServerPath != "" || len(opts.ServerArgs) != 0 {
			t.Errorf("%s: opts = %+v, want zero value", tt.name, opts)
		}
	}
}

func TestOptionsFromJSONMalformed(t *testing.T) {
	t.Parallel()

	if _, err := OptionsFromJSON(json.RawMessage(`{"lsp":`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
