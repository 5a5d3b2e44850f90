package conversions

import (
	"fmt"

	"github.com/sidereusnuntius/storyfeed/internal/domain"
	"github.com/tidwall/gjson"
)

// ConvertUser maps a user record, as in {"username","name","createdAt","favorites":[],"stories":[]}.
func ConvertUser(r gjson.Result) (u domain.UserRecord, err error) {
	if !r.IsObject() {
		err = fmt.Errorf("%w: user is not an object", ErrUnprocessablePropValue)
		return
	}

	if u.Username, err = requiredString(r, "username"); err != nil {
		return domain.UserRecord{}, err
	}
	if u.Name, err = optionalString(r, "name"); err != nil {
		return domain.UserRecord{}, err
	}
	if u.CreatedAt, err = timestamp(r, "createdAt", false); err != nil {
		return domain.UserRecord{}, err
	}
	if u.Favorites, err = ConvertStories(r.Get("favorites")); err != nil {
		return domain.UserRecord{}, fmt.Errorf("favorites: %w", err)
	}
	if u.OwnStories, err = ConvertStories(r.Get("stories")); err != nil {
		return domain.UserRecord{}, fmt.Errorf("stories: %w", err)
	}
	return u, nil
}

// UserFromBody decodes responses shaped as {"user":{...}}.
func UserFromBody(body []byte) (domain.UserRecord, error) {
	r, err := Parse(body, "user")
	if err != nil {
		return domain.UserRecord{}, err
	}
	return ConvertUser(r)
}

// AuthFromBody decodes the response of POST /login and POST /signup: {"user":{...},"token":"..."}.
func AuthFromBody(body []byte) (domain.UserRecord, string, error) {
	u, err := UserFromBody(body)
	if err != nil {
		return domain.UserRecord{}, "", err
	}

	r := gjson.ParseBytes(body)
	token, err := requiredString(r, "token")
	if err != nil {
		return domain.UserRecord{}, "", err
	}
	return u, token, nil
}

// FavoritesFromBody decodes the user's favorites out of the response of the favorite endpoints.
func FavoritesFromBody(body []byte) ([]domain.Story, error) {
	r, err := Parse(body, "user")
	if err != nil {
		return nil, err
	}
	if !r.IsObject() {
		return nil, fmt.Errorf("%w: user is not an object", ErrUnprocessablePropValue)
	}
	return ConvertStories(r.Get("favorites"))
}
