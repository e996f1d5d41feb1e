package server

import (
	"github.com/lestrrat-go/jwx/v2/jwk"

	"groceryhub/internal/client"
	"groceryhub/internal/database"
	"groceryhub/internal/list"
	"groceryhub/internal/search"
)

type Server struct {
	DB            database.Database
	Client        client.Client
	Federator     search.Federator
	Lists         *list.Service
	Logger        logger
	AuthSecretKey jwk.Key
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}
