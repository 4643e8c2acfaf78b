package activitypub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/driftwood-dev/apfed/apfed"
	"github.com/driftwood-dev/apfed/db"
	"github.com/driftwood-dev/apfed/domain"
	"github.com/driftwood-dev/apfed/apfed/ginfed"
	"github.com/driftwood-dev/apfed/apfed/inbox"
	"github.com/driftwood-dev/apfed/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Activity is the generic ActivityPub envelope dispatched through
// apfed/inbox. Object is left as interface{} since it may be a bare URI
// string (Follow, Like, Undo) or an embedded object (Create, Update).
type Activity struct {
	Context interface{} `json:"@context"`
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Actor   string      `json:"actor"`
	Object  interface{} `json:"object"`
}

// ActorURL implements inbox.Activity.
func (a Activity) ActorURL() string { return a.Actor }

// FollowActivity is the narrower shape consumed once an Activity has been
// identified as a Follow.
type FollowActivity struct {
	Context interface{} `json:"@context"`
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Actor   string      `json:"actor"`
	Object  string      `json:"object"` // URI of the person being followed
}

// remoteActorKind adapts *domain.RemoteAccount to inbox.ActorKind. Its
// VerifyAgainstHost satisfies fetch.Kind; inbox.Receive does not call it.
// The host check on the actor document runs when the actor is fetched.
type remoteActorKind struct{ *domain.RemoteAccount }

func (r remoteActorKind) VerifyAgainstHost(expectedHost string) error {
	parsed, err := url.Parse(r.ActorURI)
	if err != nil {
		return fmt.Errorf("%w: %v", apfed.ErrIdHostMismatch, err)
	}
	if parsed.Host != expectedHost {
		return fmt.Errorf("%w: actor host %q != expected %q", apfed.ErrIdHostMismatch, parsed.Host, expectedHost)
	}
	return nil
}

func (r remoteActorKind) PublicKeyPEM() string { return r.PublicKeyPem }

// HandleInbox runs an incoming delivery through apfed/inbox's receive
// pipeline (decode, resolve actor, verify signature) and then dispatches by
// activity type, mirroring the original per-type handlers.
func HandleInbox(w http.ResponseWriter, r *http.Request, username string, conf *util.AppConfig) {
	fed := GetFederation()
	rd := fed.cfg.NewRequestData(r.Context())

	actorLookup := func(ctx context.Context, actorURL string, rd *apfed.RequestData) (remoteActorKind, error) {
		ra, err := GetOrFetchActor(ctx, rd, actorURL)
		if err != nil {
			return remoteActorKind{}, err
		}
		return remoteActorKind{ra}, nil
	}

	handler := inbox.HandlerFunc[Activity](func(ctx context.Context, activity Activity, rd *apfed.RequestData) error {
		return dispatchActivity(ctx, activity, username, conf)
	})

	outcome := inbox.Receive[Activity, remoteActorKind](r.Context(), r, rd, actorLookup, handler, conf.Conf.HttpSignatureCompat)
	if outcome.Err != nil {
		log.Printf("Inbox: %v", outcome.Err)
	}
	w.WriteHeader(outcome.StatusCode)
}

// InboxHandler builds a gin.HandlerFunc for username's inbox using
// ginfed's gin-native entry point instead of HandleInbox's plain-net/http
// plumbing. GinInboxMiddleware must run ahead of it on the same route so
// RequestData is present in the gin context.
func InboxHandler(username string, conf *util.AppConfig) gin.HandlerFunc {
	actorLookup := func(ctx context.Context, actorURL string, rd *apfed.RequestData) (remoteActorKind, error) {
		ra, err := GetOrFetchActor(ctx, rd, actorURL)
		if err != nil {
			return remoteActorKind{}, err
		}
		return remoteActorKind{ra}, nil
	}

	handler := inbox.HandlerFunc[Activity](func(ctx context.Context, activity Activity, rd *apfed.RequestData) error {
		return dispatchActivity(ctx, activity, username, conf)
	})

	return ginfed.InboxHandler[Activity, remoteActorKind](actorLookup, handler, conf.Conf.HttpSignatureCompat)
}

// GinInboxMiddleware injects the RequestData ginfed.InboxHandler expects,
// scoped to this federation's Config.
func GinInboxMiddleware() gin.HandlerFunc {
	return ginfed.Middleware(GetFederation().cfg)
}

// dispatchActivity logs and stores the activity, then routes it to the
// per-type handler. HandleInbox and InboxHandler wrap it in an
// inbox.HandlerFunc[Activity].
func dispatchActivity(ctx context.Context, activity Activity, username string, conf *util.AppConfig) error {
	log.Printf("Inbox: Received %s from %s", activity.Type, activity.Actor)

	remoteActor, err := GetOrFetchActor(ctx, GetFederation().cfg.NewRequestData(ctx), activity.Actor)
	if err != nil {
		return fmt.Errorf("failed to verify actor: %w", err)
	}

	body, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to re-marshal activity: %w", err)
	}

	database := db.GetDB()

	objectURI := ""
	switch obj := activity.Object.(type) {
	case string:
		objectURI = obj
	case map[string]interface{}:
		if id, ok := obj["id"].(string); ok {
			objectURI = id
		}
	}

	activityRecord := &domain.Activity{
		Id:           uuid.New(),
		ActivityURI:  activity.ID,
		ActivityType: activity.Type,
		ActorURI:     activity.Actor,
		ObjectURI:    objectURI,
		RawJSON:      string(body),
		Processed:    false,
		Local:        false,
		CreatedAt:    time.Now(),
	}
	if err := database.CreateActivity(activityRecord); err != nil {
		log.Printf("Inbox: Failed to store activity: %v", err)
	}

	var dispatchErr error
	switch activity.Type {
	case "Follow":
		dispatchErr = handleFollowActivity(ctx, body, username, remoteActor, conf)
	case "Undo":
		dispatchErr = handleUndoActivity(body, username, remoteActor)
	case "Create":
		dispatchErr = handleCreateActivity(body, username)
	case "Like":
		dispatchErr = handleLikeActivity(body, username)
	case "Accept":
		if err := handleAcceptActivity(body, username); err != nil {
			log.Printf("Inbox: Failed to handle Accept: %v", err)
		}
	case "Update":
		dispatchErr = handleUpdateActivity(ctx, body, username)
	case "Delete":
		dispatchErr = handleDeleteActivity(ctx, body, username)
	default:
		log.Printf("Inbox: Unsupported activity type: %s", activity.Type)
	}
	if dispatchErr != nil {
		return dispatchErr
	}

	activityRecord.Processed = true
	database.UpdateActivity(activityRecord)
	return nil
}

// handleFollowActivity processes a Follow activity.
func handleFollowActivity(ctx context.Context, body []byte, username string, remoteActor *domain.RemoteAccount, conf *util.AppConfig) error {
	var follow FollowActivity
	if err := json.Unmarshal(body, &follow); err != nil {
		return fmt.Errorf("failed to parse Follow activity: %w", err)
	}

	log.Printf("Inbox: Processing Follow from %s@%s", remoteActor.Username, remoteActor.Domain)

	database := db.GetDB()
	err, localAccount := database.ReadAccByUsername(username)
	if err != nil {
		return fmt.Errorf("local account not found: %w", err)
	}

	followRecord := &domain.Follow{
		Id:              uuid.New(),
		AccountId:       remoteActor.Id,
		TargetAccountId: localAccount.Id,
		URI:             follow.ID,
		Accepted:        true,
		CreatedAt:       time.Now(),
	}
	if err := database.CreateFollow(followRecord); err != nil {
		return fmt.Errorf("failed to create follow: %w", err)
	}

	if err := SendAccept(ctx, localAccount, remoteActor, follow.ID, conf); err != nil {
		return fmt.Errorf("failed to send Accept: %w", err)
	}

	log.Printf("Inbox: Accepted follow from %s@%s", remoteActor.Username, remoteActor.Domain)
	return nil
}

// handleUndoActivity processes an Undo activity (e.g., Undo Follow).
func handleUndoActivity(body []byte, username string, remoteActor *domain.RemoteAccount) error {
	var undo struct {
		Type   string          `json:"type"`
		Actor  string          `json:"actor"`
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(body, &undo); err != nil {
		return fmt.Errorf("failed to parse Undo activity: %w", err)
	}

	var obj struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(undo.Object, &obj); err != nil {
		return fmt.Errorf("failed to parse Undo object: %w", err)
	}

	if obj.Type == "Follow" {
		database := db.GetDB()
		if err := database.DeleteFollowByURI(obj.ID); err != nil {
			return fmt.Errorf("failed to delete follow: %w", err)
		}
		log.Printf("Inbox: Removed follow from %s@%s", remoteActor.Username, remoteActor.Domain)
	}
	return nil
}

// handleCreateActivity processes a Create activity (incoming post/note).
func handleCreateActivity(body []byte, username string) error {
	var create struct {
		ID     string `json:"id"`
		Type   string `json:"type"`
		Actor  string `json:"actor"`
		Object struct {
			ID           string `json:"id"`
			Type         string `json:"type"`
			Content      string `json:"content"`
			Published    string `json:"published"`
			AttributedTo string `json:"attributedTo"`
		} `json:"object"`
	}
	if err := json.Unmarshal(body, &create); err != nil {
		return fmt.Errorf("failed to parse Create activity: %w", err)
	}

	log.Printf("Inbox: Received post from %s", create.Actor)

	database := db.GetDB()

	err, localAccount := database.ReadAccByUsername(username)
	if err != nil {
		return fmt.Errorf("failed to get local account: %w", err)
	}

	err, remoteActor := database.ReadRemoteAccountByActorURI(create.Actor)
	if err != nil || remoteActor == nil {
		log.Printf("Inbox: Rejecting Create from unknown actor %s (not cached)", create.Actor)
		return fmt.Errorf("unknown actor")
	}

	err, follow := database.ReadFollowByAccountIds(localAccount.Id, remoteActor.Id)
	if err != nil || follow == nil {
		log.Printf("Inbox: Rejecting Create from %s - not following", create.Actor)
		return fmt.Errorf("not following this actor")
	}

	activityURI := create.ID
	if activityURI == "" {
		activityURI = create.Object.ID
	}

	err, existingActivity := database.ReadActivityByURI(activityURI)
	if err == nil && existingActivity != nil {
		log.Printf("Inbox: Activity %s already exists, skipping", activityURI)
		return nil
	}

	activity := &domain.Activity{
		Id:           uuid.New(),
		ActivityURI:  activityURI,
		ActivityType: "Create",
		ActorURI:     create.Actor,
		ObjectURI:    create.Object.ID,
		RawJSON:      string(body),
		Processed:    true,
		Local:        false,
		CreatedAt:    time.Now(),
	}
	if err := database.CreateActivity(activity); err != nil {
		log.Printf("Inbox: Failed to store Create activity: %v", err)
	}
	return nil
}

// handleLikeActivity processes a Like activity.
func handleLikeActivity(body []byte, username string) error {
	log.Printf("Inbox: Processing Like activity for %s", username)
	return nil
}

// handleAcceptActivity processes an Accept activity (response to Follow).
func handleAcceptActivity(body []byte, username string) error {
	var accept struct {
		Type   string          `json:"type"`
		Actor  string          `json:"actor"`
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(body, &accept); err != nil {
		return fmt.Errorf("failed to parse Accept activity: %w", err)
	}

	var followObj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(accept.Object, &followObj); err != nil {
		return fmt.Errorf("failed to parse Accept object: %w", err)
	}

	database := db.GetDB()
	if err := database.AcceptFollowByURI(followObj.ID); err != nil {
		return fmt.Errorf("failed to accept follow: %w", err)
	}

	log.Printf("Inbox: Follow %s was accepted by %s", followObj.ID, accept.Actor)
	return nil
}

// handleUpdateActivity processes an Update activity (profile updates, post
// edits).
func handleUpdateActivity(ctx context.Context, body []byte, username string) error {
	var update struct {
		ID     string          `json:"id"`
		Type   string          `json:"type"`
		Actor  string          `json:"actor"`
		Object json.RawMessage `json:"object"`
	}
	if err := json.Unmarshal(body, &update); err != nil {
		return fmt.Errorf("failed to parse Update activity: %w", err)
	}

	var objectType struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(update.Object, &objectType); err != nil {
		return fmt.Errorf("failed to parse Update object: %w", err)
	}

	log.Printf("Inbox: Processing Update for %s (type: %s) from %s", objectType.ID, objectType.Type, update.Actor)

	database := db.GetDB()

	switch objectType.Type {
	case "Person":
		fed := GetFederation()
		remoteActor, err := FetchRemoteActor(ctx, fed.cfg.NewRequestData(ctx), update.Actor)
		if err != nil {
			return fmt.Errorf("failed to fetch updated actor: %w", err)
		}
		log.Printf("Inbox: Updated profile for %s@%s", remoteActor.Username, remoteActor.Domain)

	case "Note", "Article":
		err, existingActivity := database.ReadActivityByObjectURI(objectType.ID)
		if err != nil || existingActivity == nil {
			log.Printf("Inbox: Note/Article %s not found for update, ignoring", objectType.ID)
			return nil
		}
		existingActivity.RawJSON = string(body)
		if err := database.UpdateActivity(existingActivity); err != nil {
			return fmt.Errorf("failed to update activity: %w", err)
		}
		log.Printf("Inbox: Updated Note/Article %s", objectType.ID)

	default:
		log.Printf("Inbox: Unsupported Update object type: %s", objectType.Type)
	}
	return nil
}

// handleDeleteActivity processes a Delete activity (post deletion, account
// deletion, or an explicit Tombstone object).
func handleDeleteActivity(ctx context.Context, body []byte, username string) error {
	var del struct {
		ID     string      `json:"id"`
		Type   string      `json:"type"`
		Actor  string      `json:"actor"`
		Object interface{} `json:"object"`
	}
	if err := json.Unmarshal(body, &del); err != nil {
		return fmt.Errorf("failed to parse Delete activity: %w", err)
	}

	database := db.GetDB()

	var objectURI string
	switch obj := del.Object.(type) {
	case string:
		objectURI = obj
	case map[string]interface{}:
		if id, ok := obj["id"].(string); ok {
			objectURI = id
		}
	}
	if objectURI == "" {
		return fmt.Errorf("could not determine object URI from Delete activity")
	}

	log.Printf("Inbox: Processing Delete for %s from %s", objectURI, del.Actor)

	if objectURI == del.Actor {
		log.Printf("Inbox: Actor %s deleted their account", del.Actor)
		err, remoteAcc := database.ReadRemoteAccountByActorURI(objectURI)
		if err == nil && remoteAcc != nil {
			database.DeleteFollowsByRemoteAccountId(remoteAcc.Id)
			database.DeleteRemoteAccount(remoteAcc.Id)
			log.Printf("Inbox: Removed actor %s and all associated data", objectURI)
		}
		return nil
	}

	err, activity := database.ReadActivityByObjectURI(objectURI)
	if err != nil || activity == nil {
		log.Printf("Inbox: Activity with object %s not found for deletion, ignoring", objectURI)
		return nil
	}
	if err := database.DeleteActivity(activity.Id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	log.Printf("Inbox: Deleted activity containing object %s", objectURI)
	return nil
}
