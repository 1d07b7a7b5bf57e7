package client

import (
	"encoding/json"
	"errors"
	"io/ioutil"
	"os"

	"github.com/itogami/todolist/backend/usersvc"
)

// Session is the durable client-side state: the bearer token and the
// public profile of the authenticated user.
type Session struct {
	Token string             `json:"token"`
	User  usersvc.PublicUser `json:"user"`
}

func loadSession(path string) (*Session, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

func saveSession(path string, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(path, data, 0600)
}

func clearSession(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
