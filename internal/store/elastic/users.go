package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"task_tracker/internal/user"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type userDocument struct {
	Username       string `json:"username"`
	HashedPassword string `json:"hashed_password"`
	Role           string `json:"role"`
}

// UserRepository keys each user document by username, which makes the
// store itself reject a second registration of the same name.
type UserRepository struct {
	es    *elasticsearch.Client
	index string
}

func NewUserRepository(es *elasticsearch.Client, index string) *UserRepository {
	return &UserRepository{es: es, index: index}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	body, err := json.Marshal(userDocument{
		Username:       u.Username,
		HashedPassword: u.HashedPassword,
		Role:           string(u.Role),
	})
	if err != nil {
		return err
	}

	res, err := esapi.CreateRequest{
		Index:      r.index,
		DocumentID: documentID(u.Username),
		Body:       bytes.NewReader(body),
		Refresh:    refreshWaitFor,
	}.Do(ctx, r.es)
	if err != nil {
		return storeError("create user", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusConflict:
		return user.ErrUsernameTaken
	case res.IsError():
		return responseError("create user", res)
	}

	u.ID = u.Username
	return nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	res, err := esapi.GetRequest{
		Index:      r.index,
		DocumentID: documentID(username),
	}.Do(ctx, r.es)
	if err != nil {
		return nil, storeError("get user", err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		if err := missingIndex("get user", res); err != nil {
			return nil, err
		}
		return nil, user.ErrUserNotFound
	case res.IsError():
		return nil, responseError("get user", res)
	}

	var hit struct {
		ID     string       `json:"_id"`
		Source userDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&hit); err != nil {
		return nil, storeError("decode user", err)
	}

	return &user.User{
		ID:             hit.ID,
		Username:       hit.Source.Username,
		HashedPassword: hit.Source.HashedPassword,
		Role:           user.Role(hit.Source.Role),
	}, nil
}
