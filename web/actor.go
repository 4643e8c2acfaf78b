package web

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/driftwood-dev/apfed/db"
	"github.com/driftwood-dev/apfed/util"
	"github.com/google/uuid"
	"strings"
)

type action uint

const (
	id action = iota
	inbox
	outbox
	followers
	following
	sharedInbox
)

func GetActor(actor string, conf *util.AppConfig) (error, string) {
	err, acc := db.GetDB().ReadAccByUsername(actor)
	if err != nil {
		return err, "{}"
	}

	username := acc.Username
	pubKey := strings.Replace(acc.WebPublicKey, "\n", "\\n", -1)

	// Use DisplayName if available, otherwise use username
	displayName := acc.DisplayName
	if displayName == "" {
		displayName = username
	}

	// Escape any quotes in summary for JSON
	summary := strings.Replace(acc.Summary, "\"", "\\\"", -1)
	summary = strings.Replace(summary, "\n", "\\n", -1)

	return nil, fmt.Sprintf(
		`{
					"@context": [
						"https://www.w3.org/ns/activitystreams",
						"https://w3id.org/security/v1"
					],

					"id": "%s",
					"type": "Person",
					"preferredUsername": "%s",
					"name" : "%s",
					"summary": "%s",
					"inbox": "%s",
					"outbox": "%s",
					"followers": "%s",
					"following": "%s",
					"url": "%s",
  					"manuallyApprovesFollowers": false,
					"discoverable": true,
  					"endpoints": {
    					"sharedInbox": "%s"
  					},
					"publicKey": {
						"id": "%s#main-key",
						"owner": "%s",
						"publicKeyPem": "%s"
					}
				}`,
		getIRI(conf.Conf.SslDomain, username, id),
		username, displayName, summary,
		getIRI(conf.Conf.SslDomain, username, inbox),
		getIRI(conf.Conf.SslDomain, username, outbox),
		getIRI(conf.Conf.SslDomain, username, followers),
		getIRI(conf.Conf.SslDomain, username, following),
		getIRI(conf.Conf.SslDomain, username, id),
		getIRI(conf.Conf.SslDomain, username, sharedInbox),
		getIRI(conf.Conf.SslDomain, username, id),
		getIRI(conf.Conf.SslDomain, username, id), pubKey)
}

func getIRI(domain string, username string, action action) string {

	prefix := fmt.Sprintf("https://%s/users/%s", domain, username)
	switch action {
	case inbox:
		return fmt.Sprintf("%s/inbox", prefix)
	case outbox:
		return fmt.Sprintf("%s/outbox", prefix)
	case followers:
		return fmt.Sprintf("%s/followers", prefix)
	case following:
		return fmt.Sprintf("%s/following", prefix)
	case id:
		return prefix
	case sharedInbox:
		return fmt.Sprintf("https://%s/inbox", domain)
	default:
		return ""
	}
}

// GetNoteObject returns a Note object as ActivityPub JSON
func GetNoteObject(noteId uuid.UUID, conf *util.AppConfig) (error, string) {
	database := db.GetDB()
	err, note := database.ReadNoteId(noteId)
	if err != nil {
		return err, "{}"
	}

	// Get the account to build actor URI
	err, account := database.ReadAccByUsername(note.CreatedBy)
	if err != nil {
		return err, "{}"
	}

	actorURI := fmt.Sprintf("https://%s/users/%s", conf.Conf.SslDomain, account.Username)
	noteURI := fmt.Sprintf("https://%s/notes/%s", conf.Conf.SslDomain, note.Id.String())

	// Build the Note object
	noteObj := map[string]interface{}{
		"@context":     "https://www.w3.org/ns/activitystreams",
		"id":           noteURI,
		"type":         "Note",
		"attributedTo": actorURI,
		"content":      note.Message,
		"published":    note.CreatedAt.Format(time.RFC3339),
		"to": []string{
			"https://www.w3.org/ns/activitystreams#Public",
		},
		"cc": []string{
			fmt.Sprintf("https://%s/users/%s/followers", conf.Conf.SslDomain, account.Username),
		},
	}

	// Add updated field if note was edited
	if note.EditedAt != nil {
		noteObj["updated"] = note.EditedAt.Format(time.RFC3339)
	}

	// A soft-deleted note still resolves at its URI, but renders as a
	// Tombstone instead of its original content.
	if note.DeletedAt != nil {
		tombstone := map[string]interface{}{
			"@context":   "https://www.w3.org/ns/activitystreams",
			"id":         noteURI,
			"type":       "Tombstone",
			"formerType": "Note",
			"deleted":    note.DeletedAt.Format(time.RFC3339),
		}
		jsonBytes, err := json.Marshal(tombstone)
		if err != nil {
			return err, "{}"
		}
		return nil, string(jsonBytes)
	}

	jsonBytes, err := json.Marshal(noteObj)
	if err != nil {
		return err, "{}"
	}

	return nil, string(jsonBytes)
}

// resolveFollowActorURI resolves a follows.account_id/target_account_id
// value (which may name either a remote_accounts row or a local accounts
// row) to the actor's ActivityPub id, matching the dual local/remote
// nature of domain.Follow documented in domain/activitypub.go.
func resolveFollowActorURI(accountId uuid.UUID, conf *util.AppConfig) (string, bool) {
	database := db.GetDB()

	if err, remote := database.ReadRemoteAccountById(accountId); err == nil && remote != nil {
		return remote.ActorURI, true
	}

	if err, local := database.ReadAccById(accountId); err == nil && local != nil {
		return getIRI(conf.Conf.SslDomain, local.Username, id), true
	}

	return "", false
}

// GetFollowersCollection returns actor's followers as an ActivityPub
// OrderedCollection of actor URIs.
func GetFollowersCollection(actor string, conf *util.AppConfig) (error, string) {
	database := db.GetDB()
	err, acc := database.ReadAccByUsername(actor)
	if err != nil {
		return err, "{}"
	}

	err, follows := database.ReadFollowersByAccountId(acc.Id)
	if err != nil {
		return err, "{}"
	}

	items := make([]string, 0, len(*follows))
	for _, f := range *follows {
		if uri, ok := resolveFollowActorURI(f.AccountId, conf); ok {
			items = append(items, uri)
		}
	}

	return nil, marshalOrderedCollection(getIRI(conf.Conf.SslDomain, actor, followers), items)
}

// GetFollowingCollection returns the accounts actor is following as an
// ActivityPub OrderedCollection of actor URIs.
func GetFollowingCollection(actor string, conf *util.AppConfig) (error, string) {
	database := db.GetDB()
	err, acc := database.ReadAccByUsername(actor)
	if err != nil {
		return err, "{}"
	}

	err, follows := database.ReadFollowingByAccountId(acc.Id)
	if err != nil {
		return err, "{}"
	}

	items := make([]string, 0, len(*follows))
	for _, f := range *follows {
		if uri, ok := resolveFollowActorURI(f.TargetAccountId, conf); ok {
			items = append(items, uri)
		}
	}

	return nil, marshalOrderedCollection(getIRI(conf.Conf.SslDomain, actor, following), items)
}

// marshalOrderedCollection renders a single-page, unpaginated
// OrderedCollection — adequate for the follower/following counts a
// single-server stegodon instance accumulates.
func marshalOrderedCollection(collectionId string, items []string) string {
	collection := map[string]interface{}{
		"@context":     "https://www.w3.org/ns/activitystreams",
		"id":           collectionId,
		"type":         "OrderedCollection",
		"totalItems":   len(items),
		"orderedItems": items,
	}
	jsonBytes, err := json.Marshal(collection)
	if err != nil {
		return "{}"
	}
	return string(jsonBytes)
}
