package notify_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-notify/internal/domain/entity"
	"stream-notify/internal/render"
	"stream-notify/internal/usecase/notify"
)

type postedRequest struct {
	endpoint string
	body     string
}

type mockPoster struct {
	posts   []postedRequest
	failFor string // endpoint substring that fails
}

func (m *mockPoster) Post(_ context.Context, endpoint, body string) error {
	if m.failFor != "" && endpoint == m.failFor {
		return errors.New("connection refused")
	}
	m.posts = append(m.posts, postedRequest{endpoint: endpoint, body: body})
	return nil
}

type mockPeople struct {
	people map[int64]*entity.Person
	err    error
}

func (m *mockPeople) Get(_ context.Context, id int64) (*entity.Person, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.people[id], nil
}

func (m *mockPeople) FindByIDs(_ context.Context, ids []int64) (entity.RecipientIndex, error) {
	if m.err != nil {
		return nil, m.err
	}
	index := make(entity.RecipientIndex)
	for _, id := range ids {
		if person, ok := m.people[id]; ok {
			index[id] = person
		}
	}
	return index, nil
}

func webhookPeople() *mockPeople {
	return &mockPeople{people: map[int64]*entity.Person{
		50: {ID: 50, AccountID: "fifty", DisplayName: "Fifty"},
		52: {ID: 52, AccountID: "fiftytwo", DisplayName: "FiftyTwo"},
	}}
}

func webhookNotifier(poster notify.Poster, people *mockPeople, endpoints []notify.Endpoint) *notify.WebhookNotifier {
	engine := render.NewEngine(nil)
	templates := map[entity.Kind]string{
		entity.KindCommentOnPost: `{"recipient":"{{.recipient.AccountID}}","kind":"{{.type}}"}`,
	}
	return notify.NewWebhookNotifier(poster, people, engine, templates, endpoints, nil, nil)
}

func TestWebhookNotifier_MissingTemplateIsNoOp(t *testing.T) {
	// Arrange
	poster := &mockPoster{}
	notifier := webhookNotifier(poster, webhookPeople(), []notify.Endpoint{{Name: "e", EncodedURL: "https://x"}})

	// Act
	items, err := notifier.Notify(context.Background(), entity.KindFollowed, []int64{50}, nil, nil)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, items)
	assert.Empty(t, poster.posts)
}

func TestWebhookNotifier_PostsPerRecipientPerEndpoint(t *testing.T) {
	// Arrange
	poster := &mockPoster{}
	endpoints := []notify.Endpoint{
		{Name: "a", EncodedURL: url.QueryEscape("https://a.example.com/hook")},
		{Name: "b", EncodedURL: url.QueryEscape("https://b.example.com/hook")},
	}
	notifier := webhookNotifier(poster, webhookPeople(), endpoints)

	// Act
	items, err := notifier.Notify(context.Background(), entity.KindCommentOnPost, []int64{50, 52}, nil, nil)

	// Assert: 2 recipients x 2 endpoints.
	require.NoError(t, err)
	assert.Nil(t, items)
	require.Len(t, poster.posts, 4)
	assert.Equal(t, "https://a.example.com/hook", poster.posts[0].endpoint)
	assert.Equal(t, `{"recipient":"fifty","kind":"COMMENT_ON_POST"}`, poster.posts[0].body)
	assert.Equal(t, `{"recipient":"fiftytwo","kind":"COMMENT_ON_POST"}`, poster.posts[2].body)
}

func TestWebhookNotifier_EndpointURLTemplate(t *testing.T) {
	// Arrange: the endpoint URL itself carries a template marker and is
	// stored URL-encoded.
	poster := &mockPoster{}
	endpoints := []notify.Endpoint{
		{Name: "per-user", EncodedURL: url.QueryEscape("https://x.example.com/users/{{.recipient.AccountID}}/events")},
	}
	notifier := webhookNotifier(poster, webhookPeople(), endpoints)

	// Act
	_, err := notifier.Notify(context.Background(), entity.KindCommentOnPost, []int64{50}, nil, nil)

	// Assert
	require.NoError(t, err)
	require.Len(t, poster.posts, 1)
	assert.Equal(t, "https://x.example.com/users/fifty/events", poster.posts[0].endpoint)
}

func TestWebhookNotifier_SkipsUnresolvedRecipient(t *testing.T) {
	// Arrange: 51 does not exist.
	poster := &mockPoster{}
	endpoints := []notify.Endpoint{{Name: "a", EncodedURL: url.QueryEscape("https://a.example.com/hook")}}
	notifier := webhookNotifier(poster, webhookPeople(), endpoints)

	// Act
	_, err := notifier.Notify(context.Background(), entity.KindCommentOnPost, []int64{51, 50}, nil, nil)

	// Assert: only the resolvable recipient was posted.
	require.NoError(t, err)
	require.Len(t, poster.posts, 1)
	assert.Contains(t, poster.posts[0].body, "fifty")
}

func TestWebhookNotifier_PostFailureIsSwallowed(t *testing.T) {
	// Arrange: the first endpoint refuses connections.
	poster := &mockPoster{failFor: "https://dead.example.com/hook"}
	endpoints := []notify.Endpoint{
		{Name: "dead", EncodedURL: url.QueryEscape("https://dead.example.com/hook")},
		{Name: "live", EncodedURL: url.QueryEscape("https://live.example.com/hook")},
	}
	notifier := webhookNotifier(poster, webhookPeople(), endpoints)

	// Act
	_, err := notifier.Notify(context.Background(), entity.KindCommentOnPost, []int64{50}, nil, nil)

	// Assert: no error, and the live endpoint still got its post.
	require.NoError(t, err)
	require.Len(t, poster.posts, 1)
	assert.Equal(t, "https://live.example.com/hook", poster.posts[0].endpoint)
}

func TestWebhookNotifier_NoEndpointsIsNoOp(t *testing.T) {
	// Arrange
	people := webhookPeople()
	poster := &mockPoster{}
	notifier := webhookNotifier(poster, people, nil)

	// Act
	_, err := notifier.Notify(context.Background(), entity.KindCommentOnPost, []int64{50}, nil, nil)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, poster.posts)
}
