package notify

import (
	"context"
	"encoding/base64"
	"fmt"

	"stream-notify/internal/domain/entity"
)

// ReplyPolicy controls the Reply-To header of composed mail.
type ReplyPolicy string

const (
	// ReplyPolicyNone leaves Reply-To unset.
	ReplyPolicyNone ReplyPolicy = "NONE"

	// ReplyPolicyActor sets Reply-To to the acting person's email address
	// when the ACTOR property exposes one.
	ReplyPolicyActor ReplyPolicy = "ACTOR"

	// ReplyPolicyCommentToken sets Reply-To to a generated ingest address
	// that carries a token identifying the commented activity, so replying
	// to the mail posts a comment.
	ReplyPolicyCommentToken ReplyPolicy = "COMMENT"
)

// AddressBuilder produces tokenized reply addresses for the COMMENT policy.
// The address is built per recipient: the token must identify who replied,
// not just what was replied to.
type AddressBuilder interface {
	// BuildCommentAddress returns the reply address for the given recipient
	// commenting on the event described by the properties, or ("", nil) when
	// no address can be built.
	BuildCommentAddress(ctx context.Context, kind entity.Kind, properties map[string]any, recipientID int64) (string, error)
}

// AddressBuilderFunc adapts a function to the AddressBuilder interface.
type AddressBuilderFunc func(ctx context.Context, kind entity.Kind, properties map[string]any, recipientID int64) (string, error)

// BuildCommentAddress implements AddressBuilder.
func (f AddressBuilderFunc) BuildCommentAddress(ctx context.Context, kind entity.Kind, properties map[string]any, recipientID int64) (string, error) {
	return f(ctx, kind, properties, recipientID)
}

// NewTokenAddressBuilder returns an AddressBuilder producing addresses of
// the form "notify+<token>@<domain>". The token encodes the kind, the SOURCE
// entity of the event and the recipient, so the mail ingest side can route
// the reply back to the commented activity and attribute it to the replier.
// With no domain or no identifiable source no address is built.
func NewTokenAddressBuilder(domain string) AddressBuilder {
	return AddressBuilderFunc(func(_ context.Context, kind entity.Kind, properties map[string]any, recipientID int64) (string, error) {
		if domain == "" {
			return "", nil
		}
		source, ok := properties[entity.PropSource].(entity.Identifiable)
		if !ok {
			return "", nil
		}
		token := base64.RawURLEncoding.EncodeToString(
			[]byte(fmt.Sprintf("%s:%s:%s:%d", kind, source.EntityType(), source.UniqueID(), recipientID)))
		return fmt.Sprintf("notify+%s@%s", token, domain), nil
	})
}

// actorReply resolves the reply-to-actor address, or "" when the ACTOR
// property exposes no email.
func actorReply(policy ReplyPolicy, properties map[string]any) string {
	if policy != ReplyPolicyActor {
		return ""
	}
	if actor, ok := properties[entity.PropActor].(entity.HasEmail); ok {
		return actor.EmailAddress()
	}
	return ""
}
