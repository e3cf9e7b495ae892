package entity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCloneForRecipient_SwapsOnlyRecipient(t *testing.T) {
	// Arrange
	original := &InAppNotification{
		ID:                  7,
		RecipientID:         50,
		Kind:                KindCommentOnPost,
		Message:             "Somebody commented on your post",
		URL:                 "https://streams.example.com/activity/9",
		HighPriority:        true,
		SourceType:          EntityTypeGroup,
		SourceUniqueID:      "eng-group",
		SourceName:          "Engineering",
		AvatarOwnerType:     EntityTypePerson,
		AvatarOwnerUniqueID: "jdoe",
	}

	// Act
	clone := original.CloneForRecipient(52)

	// Assert
	assert.Equal(t, int64(52), clone.RecipientID)
	assert.Equal(t, int64(0), clone.ID, "clone must be unpersisted")

	want := *original
	want.ID = 0
	want.RecipientID = 52
	if diff := cmp.Diff(&want, clone); diff != "" {
		t.Errorf("clone mismatch (-want +got):\n%s", diff)
	}

	// The original is untouched
	assert.Equal(t, int64(50), original.RecipientID)
	assert.Equal(t, int64(7), original.ID)
}

func TestKnownKinds_Closed(t *testing.T) {
	kinds := KnownKinds()
	assert.Len(t, kinds, 8)

	seen := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		assert.False(t, seen[k], "duplicate kind %s", k)
		seen[k] = true
	}
	assert.True(t, seen[KindCommentOnPost])
	assert.True(t, seen[KindAddedToGroup])
}
