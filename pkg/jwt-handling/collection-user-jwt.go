package jwthandling

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles a collection user token can carry
const (
	ROLE_ENUMERATOR  = "enumerator"
	ROLE_COORDINATOR = "coordinator"
)

// Information a token enocodes
type CollectionUserClaims struct {
	ID         string            `json:"id,omitempty"`
	InstanceID string            `json:"instance_id,omitempty"`
	MissionID  string            `json:"mission_id,omitempty"`
	Role       string            `json:"role,omitempty"`
	Payload    map[string]string `json:"payload,omitempty"`
	jwt.RegisteredClaims
}

func (c *CollectionUserClaims) IsCoordinator() bool {
	return c.Role == ROLE_COORDINATOR
}

func GenerateNewCollectionUserToken(expiresIn time.Duration, id string, instanceID string, missionID string, role string, payload map[string]string, secretKey string) (tokenString string, err error) {
	claims := CollectionUserClaims{
		id,
		instanceID,
		missionID,
		role,
		payload,
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString([]byte(secretKey))
	return
}

func ValidateCollectionUserToken(tokenString string, secretKey string) (claims *CollectionUserClaims, valid bool, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &CollectionUserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if token == nil {
		return
	}
	claims, valid = token.Claims.(*CollectionUserClaims)
	valid = valid && token.Valid
	return
}
