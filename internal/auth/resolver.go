package auth

import "net/http"

// SessionCookie is the name of the session cookie.
const SessionCookie = "roombook_session"

// Resolver turns an incoming request into a Context. Resolution happens
// independently on every request, so a session that expires between two
// requests is reflected immediately.
type Resolver struct {
	Sessions *SessionStore
}

// Resolve returns the active identity for the request: a delegated user when
// a live session with an access token exists, the service identity otherwise.
func (r *Resolver) Resolve(req *http.Request) Context {
	if r == nil || r.Sessions == nil {
		return ServiceContext()
	}

	cookie, err := req.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return ServiceContext()
	}

	sess, ok := r.Sessions.Get(cookie.Value)
	if !ok || sess.Token == nil || sess.Token.AccessToken == "" {
		return ServiceContext()
	}

	return Context{Mode: ModeDelegated, Email: sess.Email, Token: sess.Token}
}
