package web

import (
	"context"
	"fmt"

	"github.com/driftwood-dev/apfed/activitypub"
	"github.com/driftwood-dev/apfed/db"
	"github.com/driftwood-dev/apfed/util"
)

func GetWebfinger(user string, conf *util.AppConfig) (error, string) {

	err, acc := db.GetDB().ReadAccByUsername(user)
	if err != nil {
		return err, GetWebFingerNotFound()
	}

	username := acc.Username

	return nil, fmt.Sprintf(
		`{
					"subject": "acct:%s@%s",

					"links": [
						{
							"rel": "self",
							"type": "application/activity+json",
							"href": "https://%s/users/%s"
						}
					]
				}`, username, conf.Conf.SslDomain,
		conf.Conf.SslDomain, username)
}

func GetWebFingerNotFound() string {
	return `{"detail":"Not Found"}`
}

// WebFingerResponse is the shape of a WebFinger JRD document.
type WebFingerResponse struct {
	Subject string `json:"subject"`
	Links   []struct {
		Rel  string `json:"rel"`
		Type string `json:"type"`
		Href string `json:"href"`
	} `json:"links"`
}

// ResolveWebFinger resolves a remote user's "username", "domain" pair to
// their ActivityPub actor URI via WebFinger, the client-side counterpart
// to GetWebfinger's server-side JRD.
func ResolveWebFinger(username, domain string) (string, error) {
	remoteActor, err := activitypub.ResolveRemoteActor(context.Background(), fmt.Sprintf("%s@%s", username, domain))
	if err != nil {
		return "", err
	}

	return remoteActor.ActorURI, nil
}
