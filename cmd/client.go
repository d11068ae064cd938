package cmd

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"case-board.com/case-board/internal/client"
	config "case-board.com/case-board/internal/configs"
	"case-board.com/case-board/internal/session"
)

func newCaseClient(cfg config.Config, cookie string) (*client.Client, error) {
	return client.New(
		cfg.CaseAPIURL,
		cfg.Endpoints,
		&http.Cookie{Name: cfg.SessionCookieName, Value: cookie},
		client.WithLogger(log.WithField("component", "client")),
	)
}

func caseAPIDialer(cfg config.Config) session.Dialer {
	return func(cookie string) (session.CaseAPI, error) {
		c, err := newCaseClient(cfg, cookie)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
