package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"

	infrahttp "github.com/Activ8Auto/ProAutoFill/infrastructure/http"
	infralogger "github.com/Activ8Auto/ProAutoFill/infrastructure/logger"
	"github.com/Activ8Auto/ProAutoFill/internal/gateway"
	"github.com/Activ8Auto/ProAutoFill/internal/session"
)

var errNoToken = errors.New("no token: run `proautofill login` and pass --token or set PROAUTOFILL_TOKEN")

// cliContext is shared by every command of one root.
type cliContext struct {
	v       *viper.Viper
	cfgFile string
	out     io.Writer
}

func (c *cliContext) logger() infralogger.Logger {
	if !c.v.GetBool(keyDebug) {
		return infralogger.NewNop()
	}
	log, err := infralogger.New(infralogger.Config{
		Level:       "debug",
		Format:      infralogger.FormatConsole,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return infralogger.NewNop()
	}
	return log
}

func (c *cliContext) client() *gateway.Client {
	httpClient := infrahttp.NewClient(&infrahttp.ClientConfig{})
	return gateway.NewClient(c.v.GetString(keyAPIURL), httpClient, c.logger())
}

func (c *cliContext) token() (string, error) {
	token := c.v.GetString(keyToken)
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}

// userID reads the subject of the bearer token without verifying it.
func (c *cliContext) userID() (string, error) {
	token, err := c.token()
	if err != nil {
		return "", err
	}
	claims, err := session.DecodeToken(token, "")
	if err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	return claims.UserID, nil
}
