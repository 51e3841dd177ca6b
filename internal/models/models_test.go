package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveReaction(t *testing.T) {
	tests := []struct {
		name     string
		existing *Reaction
		emoji    string
		want     ReactionAction
	}{
		{"no reaction adds", nil, "👍", ReactionAdd},
		{"same emoji removes", &Reaction{Emoji: "👍"}, "👍", ReactionRemove},
		{"different emoji replaces", &Reaction{Emoji: "👍"}, "❤️", ReactionReplace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveReaction(tt.existing, tt.emoji))
		})
	}
}

func TestSides(t *testing.T) {
	assert.Equal(t, SideAdmin, SideOf(RoleSuperadmin))
	assert.Equal(t, SideAdmin, SideOf(RoleAdmin))
	assert.Equal(t, SideStudent, SideOf(RoleStudent))
	assert.Equal(t, SideStudent, SideAdmin.Opposite())
	assert.Equal(t, SideAdmin, SideStudent.Opposite())
}

func TestAttachmentsScan(t *testing.T) {
	var items Attachments
	require.NoError(t, items.Scan([]byte(`[{"filename":"a.png","url":"/uploads/a.png","mimetype":"image/png"}]`)))
	require.Len(t, items, 1)
	assert.Equal(t, "/uploads/a.png", items[0].URL)

	require.NoError(t, items.Scan(nil))
	assert.Empty(t, items)

	raw, err := Attachments(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)
}

func TestComplaintFilterOffset(t *testing.T) {
	assert.Equal(t, 0, ComplaintFilter{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, ComplaintFilter{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, ComplaintFilter{Page: 0, Limit: 10}.Offset())
}
