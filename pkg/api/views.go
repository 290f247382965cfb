package api

import (
	"context"
	"fmt"

	"github.com/platinummonkey/snooze/pkg/models"
)

// userView is the public representation of a user. Password digests and
// the staff flag are never serialized.
type userView struct {
	*models.User
	Stories   []*models.Story `json:"stories"`
	Favorites []*models.Story `json:"favorites"`
}

type authResponse struct {
	Token string    `json:"token"`
	User  *userView `json:"user"`
}

type userResponse struct {
	User *userView `json:"user"`
}

type favoriteResponse struct {
	Message string    `json:"message"`
	User    *userView `json:"user"`
}

type storyResponse struct {
	Story *models.Story `json:"story"`
}

type storiesResponse struct {
	Stories []*models.Story `json:"stories"`
}

type deleteResponse struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// newUserView loads the stories and favorites of u
func (s *Server) newUserView(ctx context.Context, u *models.User) (*userView, error) {
	stories, err := s.store.ListStoriesByUser(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("load stories of %q: %w", u.Username, err)
	}
	favorites, err := s.store.ListFavorites(ctx, u.Username)
	if err != nil {
		return nil, fmt.Errorf("load favorites of %q: %w", u.Username, err)
	}
	return &userView{User: u, Stories: stories, Favorites: favorites}, nil
}
