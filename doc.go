// Package netatmo provides a Go client for the Netatmo app API, covering
// home and room discovery and the "true temperature" calibration endpoint.
//
// The app API is the private API used by the vendor's own applications.
// It is not covered by the public OAuth API: access requires a cookie-based
// login with the account's username and password, and the resulting session
// stays valid until the server rejects it.
//
// # Authentication
//
// The Authenticator performs the login handshake, caches the session
// credential in memory, and persists it through a CredentialStore so later
// processes can skip the login:
//
//	path, _ := netatmo.DefaultCredentialPath()
//	store := netatmo.NewFileCredentialStore(path)
//	auth, err := netatmo.NewAuthenticator(username, password, store)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := netatmo.NewClient(auth)
//
// The Authenticator is safe for concurrent use: at most one login handshake
// is in flight per instance, and concurrent callers observe its single
// result. When the server rejects a session as stale, the client invalidates
// the credential, re-authenticates, and retries the call exactly once.
//
// # Basic Usage
//
// List rooms with their current temperatures:
//
//	rooms, err := client.ListThermostatRooms(ctx, "")
//	for _, room := range rooms {
//	    fmt.Printf("%s: %.1f°C\n", room.Name, *room.MeasuredTemperature)
//	}
//
// Calibrate a room's measured temperature:
//
//	result, err := client.SetTrueTemperature(ctx, roomID, 20.5, "")
//	if result.Skipped {
//	    // already within 0.1°C of the target, nothing written
//	}
//
// # Error Handling
//
// Check for specific error kinds:
//
//	_, err := client.SetTrueTemperature(ctx, roomID, 20.5, "")
//	if err != nil {
//	    if netatmo.IsAuthenticationError(err) {
//	        // login rejected, or session still stale after re-authentication
//	    } else if netatmo.IsValidationError(err) {
//	        // bad input, nothing was sent
//	    } else if netatmo.IsNotFound(err) {
//	        // unknown home or room
//	    }
//	}
package netatmo
