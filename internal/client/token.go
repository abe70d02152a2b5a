package client

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// LoadToken reads a token saved by SaveToken. A missing file or an expired
// token yields ErrNotLoggedIn.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, errors.Wrap(err, "read token file")
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, errors.Wrapf(err, "decode token file %s", path)
	}
	if !token.Valid() {
		return nil, ErrNotLoggedIn
	}
	return token, nil
}

// SaveToken writes token to path, readable by the current user only.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "create token directory")
	}
	data, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, "encode token")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(err, "write token file")
	}
	return nil
}
