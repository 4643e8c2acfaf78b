package activitypub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/driftwood-dev/apfed/db"
	"github.com/driftwood-dev/apfed/domain"
	"github.com/driftwood-dev/apfed/apfed/queue"
	"github.com/driftwood-dev/apfed/util"
	"github.com/google/uuid"
)

// signingIdentityFor builds the queue.SigningIdentity an outbound delivery
// signs with: the local account's key, addressed by its #main-key fragment
// per the actor document's publicKey.id.
func signingIdentityFor(localAccount *domain.Account, conf *util.AppConfig) queue.SigningIdentity {
	return queue.SigningIdentity{
		KeyID:      fmt.Sprintf("https://%s/users/%s#main-key", conf.Conf.SslDomain, localAccount.Username),
		PrivateKey: localAccount.WebPrivateKey,
	}
}

// deliver hands activity to the federation queue for delivery to inboxes,
// logging the handoff for operator visibility. QueueActivity dedupes shared
// inboxes, drops unparsable, local-domain and URL-verifier-rejected targets,
// and (in debug mode)
// delivers inline so its error propagates here.
func deliver(ctx context.Context, activity interface{}, localAccount *domain.Account, conf *util.AppConfig, inboxes []queue.Inbox) error {
	body, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("outbox: marshal activity: %w", err)
	}

	for _, ibx := range inboxes {
		logEntry := &domain.DeliveryQueueItem{
			Id:           uuid.New(),
			InboxURI:     ibx.InboxURL,
			ActivityJSON: string(body),
			NextRetryAt:  time.Now(),
			CreatedAt:    time.Now(),
		}
		if err := db.GetDB().LogDelivery(logEntry); err != nil {
			log.Printf("Outbox: failed to log delivery to %s: %v", ibx.InboxURL, err)
		}
	}

	sender := signingIdentityFor(localAccount, conf)
	if err := GetFederation().queue.QueueActivity(ctx, body, sender, inboxes); err != nil {
		return fmt.Errorf("outbox: queue activity: %w", err)
	}
	return nil
}

// SendAccept sends an Accept activity in response to a Follow.
func SendAccept(ctx context.Context, localAccount *domain.Account, remoteActor *domain.RemoteAccount, followID string, conf *util.AppConfig) error {
	acceptID := fmt.Sprintf("https://%s/activities/%s", conf.Conf.SslDomain, uuid.New().String())
	actorURI := fmt.Sprintf("https://%s/users/%s", conf.Conf.SslDomain, localAccount.Username)

	accept := map[string]interface{}{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id":       acceptID,
		"type":     "Accept",
		"actor":    actorURI,
		"object": map[string]interface{}{
			"id":     followID,
			"type":   "Follow",
			"actor":  remoteActor.ActorURI,
			"object": actorURI,
		},
	}

	inboxes := []queue.Inbox{{InboxURL: remoteActor.InboxURI, SharedInboxURL: remoteActor.SharedInboxURI}}
	return deliver(ctx, accept, localAccount, conf, inboxes)
}

// SendCreate sends a Create activity for a new note to every follower's
// inbox, deduped through shared inboxes.
func SendCreate(ctx context.Context, note *domain.Note, localAccount *domain.Account, conf *util.AppConfig) error {
	actorURI := fmt.Sprintf("https://%s/users/%s", conf.Conf.SslDomain, localAccount.Username)
	noteURI := fmt.Sprintf("https://%s/notes/%s", conf.Conf.SslDomain, note.Id.String())
	createID := fmt.Sprintf("https://%s/activities/%s", conf.Conf.SslDomain, uuid.New().String())
	followersURI := fmt.Sprintf("https://%s/users/%s/followers", conf.Conf.SslDomain, localAccount.Username)

	create := map[string]interface{}{
		"@context":  "https://www.w3.org/ns/activitystreams",
		"id":        createID,
		"type":      "Create",
		"actor":     actorURI,
		"published": note.CreatedAt.Format(time.RFC3339),
		"to":        []string{"https://www.w3.org/ns/activitystreams#Public"},
		"cc":        []string{followersURI},
		"object": map[string]interface{}{
			"id":           noteURI,
			"type":         "Note",
			"attributedTo": actorURI,
			"content":      note.Message,
			"published":    note.CreatedAt.Format(time.RFC3339),
			"to":           []string{"https://www.w3.org/ns/activitystreams#Public"},
			"cc":           []string{followersURI},
		},
	}

	database := db.GetDB()
	err, followers := database.ReadFollowersByAccountId(localAccount.Id)
	if err != nil {
		log.Printf("Outbox: Failed to get followers: %v", err)
		return nil
	}
	if followers == nil || len(*followers) == 0 {
		log.Printf("Outbox: No followers to deliver to")
		return nil
	}

	var inboxes []queue.Inbox
	for _, follower := range *followers {
		err, remoteActor := database.ReadRemoteAccountById(follower.AccountId)
		if err != nil {
			log.Printf("Outbox: Failed to get remote actor %s: %v", follower.AccountId, err)
			continue
		}
		inboxes = append(inboxes, queue.Inbox{InboxURL: remoteActor.InboxURI, SharedInboxURL: remoteActor.SharedInboxURI})
	}
	if len(inboxes) == 0 {
		return nil
	}

	if err := deliver(ctx, create, localAccount, conf, inboxes); err != nil {
		return err
	}
	log.Printf("Outbox: Queued Create activity for note %s to %d followers", note.Id, len(*followers))
	return nil
}

// SendDelete sends a Delete activity wrapping a Tombstone for a note the
// local account just removed, fanned out to followers the same way
// SendCreate addresses a new note.
func SendDelete(ctx context.Context, note *domain.Note, localAccount *domain.Account, conf *util.AppConfig) error {
	actorURI := fmt.Sprintf("https://%s/users/%s", conf.Conf.SslDomain, localAccount.Username)
	noteURI := fmt.Sprintf("https://%s/notes/%s", conf.Conf.SslDomain, note.Id.String())
	deleteID := fmt.Sprintf("https://%s/activities/%s", conf.Conf.SslDomain, uuid.New().String())
	followersURI := fmt.Sprintf("https://%s/users/%s/followers", conf.Conf.SslDomain, localAccount.Username)

	deletedAt := time.Now()
	if note.DeletedAt != nil {
		deletedAt = *note.DeletedAt
	}

	del := map[string]interface{}{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id":       deleteID,
		"type":     "Delete",
		"actor":    actorURI,
		"to":       []string{"https://www.w3.org/ns/activitystreams#Public"},
		"cc":       []string{followersURI},
		"object": map[string]interface{}{
			"id":         noteURI,
			"type":       "Tombstone",
			"formerType": "Note",
			"deleted":    deletedAt.Format(time.RFC3339),
		},
	}

	database := db.GetDB()
	err, followers := database.ReadFollowersByAccountId(localAccount.Id)
	if err != nil {
		log.Printf("Outbox: Failed to get followers: %v", err)
		return nil
	}
	if followers == nil || len(*followers) == 0 {
		log.Printf("Outbox: No followers to deliver Delete to")
		return nil
	}

	var inboxes []queue.Inbox
	for _, follower := range *followers {
		err, remoteActor := database.ReadRemoteAccountById(follower.AccountId)
		if err != nil {
			log.Printf("Outbox: Failed to get remote actor %s: %v", follower.AccountId, err)
			continue
		}
		inboxes = append(inboxes, queue.Inbox{InboxURL: remoteActor.InboxURI, SharedInboxURL: remoteActor.SharedInboxURI})
	}
	if len(inboxes) == 0 {
		return nil
	}

	if err := deliver(ctx, del, localAccount, conf, inboxes); err != nil {
		return err
	}
	log.Printf("Outbox: Queued Delete activity for note %s to %d followers", note.Id, len(*followers))
	return nil
}

// SendFollow sends a Follow activity to a remote actor and records the
// follow relationship as pending, to be accepted when an Accept arrives.
func SendFollow(ctx context.Context, localAccount *domain.Account, remoteActorURI string, conf *util.AppConfig) error {
	fed := GetFederation()
	rd := fed.cfg.NewRequestData(ctx)

	remoteActor, err := GetOrFetchActor(ctx, rd, remoteActorURI)
	if err != nil {
		return fmt.Errorf("failed to fetch remote actor: %w", err)
	}

	followID := fmt.Sprintf("https://%s/activities/%s", conf.Conf.SslDomain, uuid.New().String())
	actorURI := fmt.Sprintf("https://%s/users/%s", conf.Conf.SslDomain, localAccount.Username)

	follow := map[string]interface{}{
		"@context": "https://www.w3.org/ns/activitystreams",
		"id":       followID,
		"type":     "Follow",
		"actor":    actorURI,
		"object":   remoteActorURI,
	}

	database := db.GetDB()
	followRecord := &domain.Follow{
		Id:              uuid.New(),
		AccountId:       localAccount.Id,
		TargetAccountId: remoteActor.Id,
		URI:             followID,
		Accepted:        false,
		CreatedAt:       time.Now(),
	}
	if err := database.CreateFollow(followRecord); err != nil {
		return fmt.Errorf("failed to store follow: %w", err)
	}

	inboxes := []queue.Inbox{{InboxURL: remoteActor.InboxURI, SharedInboxURL: remoteActor.SharedInboxURI}}
	return deliver(ctx, follow, localAccount, conf, inboxes)
}
