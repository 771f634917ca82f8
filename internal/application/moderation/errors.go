package moderation

import "errors"

var (
	ErrForbidden          = errors.New("User is Forbidden from performing this action")
	ErrActorNotFound      = errors.New("Actor account not found")
	ErrInvalidTransition  = errors.New("Listing is not in a state that allows this transition")
	ErrBrokerViaVetting   = errors.New("Broker role can only be granted through an approved application")
	ErrListingNotSellable = errors.New("Only approved listings can be marked sold")
)
