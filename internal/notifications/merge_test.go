package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/models"
)

func n(id string) models.Notification {
	return models.Notification{ID: id, Title: "title " + id}
}

func ids(items []models.Notification) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestMergeKeepsFirstOccurrence(t *testing.T) {
	page1 := Page{Items: []models.Notification{n("N1"), n("N2")}, HasMore: true}
	page2 := Page{Items: []models.Notification{n("N1"), n("N3")}}

	assert.Equal(t, []string{"N1", "N2", "N3"}, ids(Merge([]Page{page1, page2})))
}

func TestMergeIsIdempotent(t *testing.T) {
	pageA := Page{Items: []models.Notification{n("a"), n("b"), n("c")}}

	once := Merge([]Page{pageA})
	twice := Merge([]Page{pageA, pageA})
	assert.Equal(t, once, twice)
}

func TestMergeFirstOccurrenceWinsOnContent(t *testing.T) {
	first := n("x")
	first.IsRead = false
	later := n("x")
	later.IsRead = true

	merged := Merge([]Page{{Items: []models.Notification{first}}, {Items: []models.Notification{later}}})
	require.Len(t, merged, 1)
	assert.False(t, merged[0].IsRead)
}

func TestMergeDuplicatesWithinOnePage(t *testing.T) {
	merged := Merge([]Page{{Items: []models.Notification{n("a"), n("a"), n("b")}}})
	assert.Equal(t, []string{"a", "b"}, ids(merged))
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, Merge(nil))
	assert.Empty(t, Merge([]Page{{}, {}}))
}

func TestParseFilter(t *testing.T) {
	tests := map[string]Filter{"": FilterAll, "all": FilterAll, "UNREAD": FilterUnread, " read ": FilterRead}
	for in, want := range tests {
		got, err := ParseFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFilter("archived")
	assert.Error(t, err)
}

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 30, 0, 123456789, time.UTC)
	cursor := EncodeCursor(ts, "abc")

	gotTime, gotID, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.True(t, ts.Equal(gotTime))
	assert.Equal(t, "abc", gotID)

	for _, bad := range []string{"!!!", "bm9waXBl", EncodeCursor(ts, "")} {
		_, _, err := DecodeCursor(bad)
		assert.ErrorIs(t, err, ErrInvalidCursor, bad)
	}
}
