package server

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-auth/auth"
)

// fixtureUsers are registered at startup when fixtures are enabled.
var fixtureUsers = []auth.RegistrationInput{
	{Email: "john@example.com", Password: "reactqlrocks", FirstName: "John", LastName: "Smith"},
	{Email: "jane@example.com", Password: "123456", FirstName: "Jane", LastName: "Doe"},
}

// InitialiseSystem registers the fixture users through the normal registration path.
// Users that already exist are left alone, so it is safe to run on every start.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	for _, input := range fixtureUsers {
		user, fe, err := s.auth.Register(ctx, input)
		if err != nil {
			return errors.Wrapf(err, "[Server InitialiseSystem] %s", input.Email)
		}
		if !fe.Empty() {
			if fe.Get(auth.FieldEmail) == auth.MsgEmailTaken && fe.Len() == 1 {
				log.Debug().Str("email", input.Email).Msg("fixture user already exists")
				continue
			}
			return errors.Errorf("[Server InitialiseSystem] fixture %s rejected: %s", input.Email, fe.Error())
		}
		log.Info().Str("email", user.Email).Str("userId", user.ID).Msg("fixture user created")
	}
	return nil
}
