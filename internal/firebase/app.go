// Package firebase bootstraps the Firebase Admin SDK from configuration.
package firebase

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	fb "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/sorrisoclinic/clinic-api/internal/config"
)

var scopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/datastore",
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/userinfo.email",
}

// Clients groups the Admin SDK handles the API uses.
type Clients struct {
	App       *fb.App
	Auth      *fbauth.Client
	Firestore *firestore.Client
}

// Close releases the Firestore connection.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// New initializes the app, the auth client and, when withFirestore is set,
// the Firestore client.
func New(ctx context.Context, cfg config.FirebaseConfig, withFirestore bool) (*Clients, error) {
	if !cfg.Enabled() {
		return nil, errors.New("firebase: not configured")
	}

	opts, projectID, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth: %w", err)
	}

	clients := &Clients{App: app, Auth: authClient}
	if withFirestore {
		fs, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase: firestore: %w", err)
		}
		clients.Firestore = fs
	}
	return clients, nil
}

// clientOptions prefers inline JSON credentials over a key file. Without
// either, application default credentials apply.
func clientOptions(ctx context.Context, cfg config.FirebaseConfig) ([]option.ClientOption, string, error) {
	projectID := cfg.ProjectID

	switch {
	case cfg.CredentialsJSON != "":
		creds, err := google.CredentialsFromJSON(ctx, []byte(cfg.CredentialsJSON), scopes...)
		if err != nil {
			return nil, "", fmt.Errorf("firebase: credentials json: %w", err)
		}
		if projectID == "" {
			projectID = creds.ProjectID
		}
		return []option.ClientOption{option.WithCredentials(creds)}, projectID, nil
	case cfg.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, projectID, nil
	default:
		return nil, projectID, nil
	}
}
