package types

import (
	"testing"
)

func TestKnowledgeValidate(t *testing.T) {
	tests := []struct {
		name      string
		knowledge Knowledge
		wantErr   bool
	}{
		{
			name:      "valid text",
			knowledge: TextKnowledge("some content"),
			wantErr:   false,
		},
		{
			name:      "empty text",
			knowledge: TextKnowledge(""),
			wantErr:   true,
		},
		{
			name:      "valid record",
			knowledge: RecordKnowledge(map[string]interface{}{"title": "doc"}),
			wantErr:   false,
		},
		{
			name:      "empty record",
			knowledge: RecordKnowledge(nil),
			wantErr:   true,
		},
		{
			name: "valid collection",
			knowledge: CollectionKnowledge(
				TextKnowledge("a"),
				RecordKnowledge(map[string]interface{}{"k": "v"}),
			),
			wantErr: false,
		},
		{
			name:      "empty collection",
			knowledge: CollectionKnowledge(),
			wantErr:   true,
		},
		{
			name: "collection with invalid item",
			knowledge: CollectionKnowledge(
				TextKnowledge("a"),
				TextKnowledge(""),
			),
			wantErr: true,
		},
		{
			name: "nested collection",
			knowledge: CollectionKnowledge(
				CollectionKnowledge(TextKnowledge("inner")),
			),
			wantErr: false,
		},
		{
			name:      "unknown kind",
			knowledge: Knowledge{Kind: "blob"},
			wantErr:   true,
		},
		{
			name:      "zero value",
			knowledge: Knowledge{},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.knowledge.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestKnowledgeConstructors(t *testing.T) {
	text := TextKnowledge("hello")
	if text.Kind != KnowledgeText || text.Text != "hello" {
		t.Errorf("TextKnowledge built %+v", text)
	}

	record := RecordKnowledge(map[string]interface{}{"a": 1})
	if record.Kind != KnowledgeRecord || record.Record["a"] != 1 {
		t.Errorf("RecordKnowledge built %+v", record)
	}

	collection := CollectionKnowledge(text, record)
	if collection.Kind != KnowledgeCollection || len(collection.Items) != 2 {
		t.Errorf("CollectionKnowledge built %+v", collection)
	}
}
