package authservice

import (
	"time"

	stdjwt "github.com/golang-jwt/jwt/v4"
	"github.com/itogami/todolist/backend/authsvc"
	"github.com/twinj/uuid"
)

type AccessToken struct {
	UUID string
	Hash string
}

type Tokenizer interface {
	Generate(userID uint64, username string) (*AccessToken, error)
}

type tokenizer struct{}

func NewTokenizer() Tokenizer {
	return &tokenizer{}
}

var uuidV4 = uuid.NewV4

func (t *tokenizer) Generate(userID uint64, username string) (*AccessToken, error) {
	id := uuidV4().String()
	expiry := time.Now().Add(AccessTokenExpiry()).Unix()

	claims := stdjwt.MapClaims{
		"uuid":     id,
		"user_id":  userID,
		"username": username,
		"exp":      expiry,
	}

	token := stdjwt.NewWithClaims(stdjwt.SigningMethodHS256, claims)
	hash, err := token.SignedString([]byte(authsvc.AccessSecret))
	if err != nil {
		return nil, err
	}

	return &AccessToken{id, hash}, nil
}

// KeyFunc hands the signing secret to the transport-side JWT parser.
func KeyFunc(token *stdjwt.Token) (interface{}, error) {
	return []byte(authsvc.AccessSecret), nil
}

// AccessTokenExpiry is the validity window of an issued token. There is
// no refresh mechanism; an expired token forces a fresh login.
func AccessTokenExpiry() time.Duration {
	return time.Hour * 24
}
