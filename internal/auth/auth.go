// Package auth реализует проверку учётных данных и политику владения рядами.
// Валидация пары идентификатор/секрет делегируется внешнему аутентификатору,
// решение о доступе принимается заново на каждый запрос без кэширования.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/levinOo/go-statistics-project/internal/models"
)

// Verdict описывает трёхзначный результат проверки доступа к операции записи.
type Verdict int

const (
	// Unauthorized означает, что аутентификатор отклонил пару идентификатор/секрет.
	Unauthorized Verdict = iota

	// Forbidden означает, что пара принята, но идентификатор не совпадает с владельцем ряда.
	Forbidden

	// Authorized означает, что пара принята и идентификатор совпадает с владельцем.
	Authorized
)

// Authenticator проверяет пару идентификатор/секрет.
type Authenticator interface {
	Authenticate(identity, secret string) (bool, error)
}

// Verify выполняет одну проверку аутентификатора и сравнивает идентификатор
// с заявленным владельцем из пути запроса.
func Verify(a Authenticator, cred models.Credential, owner string) (Verdict, error) {
	ok, err := a.Authenticate(cred.Identity, cred.Secret)
	if err != nil {
		return Unauthorized, fmt.Errorf("authentication call failed: %w", err)
	}
	if !ok {
		return Unauthorized, nil
	}
	if cred.Identity != owner {
		return Forbidden, nil
	}
	return Authorized, nil
}

// --------------------- RESTAuthenticator ---------------------

type authenticationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authenticationResponse struct {
	Authenticated bool `json:"authenticated"`
}

// RESTAuthenticator делегирует проверку внешнему HTTP-сервису аутентификации.
// Сервис принимает POST с парой username/password и отвечает {"authenticated": bool}.
type RESTAuthenticator struct {
	client *resty.Client
	url    string
}

func NewRESTAuthenticator(url string, timeout time.Duration) *RESTAuthenticator {
	return &RESTAuthenticator{
		client: resty.New().SetTimeout(timeout),
		url:    url,
	}
}

func (a *RESTAuthenticator) Authenticate(identity, secret string) (bool, error) {
	var result authenticationResponse

	resp, err := a.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(authenticationRequest{Username: identity, Password: secret}).
		SetResult(&result).
		Post(a.url)
	if err != nil {
		return false, fmt.Errorf("failed to reach authentication service: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return false, fmt.Errorf("authentication service returned status %d", resp.StatusCode())
	}

	return result.Authenticated, nil
}

// --------------------- StaticAuthenticator ---------------------

// StaticAuthenticator проверяет учётные данные по заданному в конфигурации
// набору пользователей. Используется, когда внешний сервис аутентификации не настроен.
type StaticAuthenticator struct {
	secrets map[string]string
}

func NewStaticAuthenticator(secrets map[string]string) *StaticAuthenticator {
	return &StaticAuthenticator{secrets: secrets}
}

// ParseStaticUsers разбирает список пользователей вида "identity:secret,identity:secret".
func ParseStaticUsers(s string) map[string]string {
	secrets := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		identity, secret, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || identity == "" {
			continue
		}
		secrets[identity] = secret
	}
	return secrets
}

func (a *StaticAuthenticator) Authenticate(identity, secret string) (bool, error) {
	want, ok := a.secrets[identity]
	return ok && want == secret, nil
}
