package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
)

type testReply struct {
	A    int    `json:"a"`
	Mood string `json:"mood,omitempty"`
}

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema[testReply]("test_reply", func(s *jsonschema.Schema) {
		s.Properties["mood"].Enum = []any{"calm", "angry"}
	})
	if err != nil {
		t.Fatalf("NewSchema() error = %v", err)
	}
	return s
}

func TestDecode(t *testing.T) {
	schema := testSchema(t)
	tests := []struct {
		name    string
		text    string
		wantErr bool
		want    testReply
	}{
		{"valid", `{"a": 3}`, false, testReply{A: 3}},
		{"valid with enum", `{"a": 3, "mood": "calm"}`, false, testReply{A: 3, Mood: "calm"}},
		{"missing required", `{"mood": "calm"}`, true, testReply{}},
		{"wrong type", `{"a": "three"}`, true, testReply{}},
		{"not in enum", `{"a": 1, "mood": "sleepy"}`, true, testReply{}},
		{"fenced json is not repaired", "```json\n{\"a\": 3}\n```", true, testReply{}},
		{"empty", ``, true, testReply{}},
		{"fractional integer", `{"a": 1.5}`, true, testReply{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out testReply
			err := Decode(&Response{Text: tt.text}, schema, &out)
			if tt.wantErr {
				if !errors.Is(err, ErrSchemaViolation) {
					t.Fatalf("expected ErrSchemaViolation, got %v", err)
				}
				if errors.Is(err, ErrGeneration) {
					t.Error("schema violations are not generation failures")
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if out != tt.want {
				t.Errorf("got %+v, want %+v", out, tt.want)
			}
		})
	}
}

func TestGenerateInto(t *testing.T) {
	mock := NewMockGenerator().Reply(`{"a": 7}`).Fail(&Error{Kind: ErrAuth, Provider: "mock"})
	schema := testSchema(t)

	var out testReply
	if err := GenerateInto(context.Background(), mock, Request{Schema: schema}, &out); err != nil {
		t.Fatalf("GenerateInto() error = %v", err)
	}
	if out.A != 7 {
		t.Errorf("expected 7, got %d", out.A)
	}

	err := GenerateInto(context.Background(), mock, Request{Schema: schema}, &out)
	if !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}

	if err := GenerateInto(context.Background(), mock, Request{}, &out); err == nil {
		t.Error("expected error without schema")
	}
	if mock.CallCount() != 2 {
		t.Errorf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{401, ErrAuth},
		{403, ErrAuth},
		{400, ErrBadRequest},
		{404, ErrBadRequest},
		{422, ErrBadRequest},
		{408, ErrTransport},
		{429, ErrTransport},
		{500, ErrTransport},
		{503, ErrTransport},
	}
	for _, tt := range tests {
		err := ClassifyStatus("p", tt.code, "body")
		if !errors.Is(err, tt.want) {
			t.Errorf("ClassifyStatus(%d) = %v, want %v", tt.code, err, tt.want)
		}
		if err.StatusCode != tt.code {
			t.Errorf("expected status %d, got %d", tt.code, err.StatusCode)
		}
	}
}
