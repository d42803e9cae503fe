package main

import (
	"log"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/auth0-community/go-auth0"
	"github.com/gin-gonic/gin"
)

// PermsClaim is the custom claim namespace the identity provider puts
// permissions under
const PermsClaim = "https://seatrek.io/permissions"

var (
	validator     *auth0.JWTValidator
	validatorOnce sync.Once
)

func authValidator() *auth0.JWTValidator {
	validatorOnce.Do(func() {
		domain := os.Getenv("AUTH0_DOMAIN")
		audience := os.Getenv("AUTH0_AUDIENCE")
		client := auth0.NewJWKClient(auth0.JWKClientOptions{URI: domain + ".well-known/jwks.json"}, nil)
		configuration := auth0.NewConfiguration(client, []string{audience}, domain, "RS256")
		validator = auth0.NewValidator(configuration, nil)
	})
	return validator
}

// checkJWT guards admin routes: the session is whatever the identity
// provider vouches for, never ambient process state. The authenticated
// subject lands in the gin context as "user_id".
func checkJWT(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := authValidator()
		tok, err := v.ValidateRequest(c.Request)
		if err != nil {
			log.Println("Token isn't valid:", tok)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		claims := map[string]interface{}{}
		custom := struct {
			Subject string           `json:"sub"`
			Perms   sort.StringSlice `json:"https://seatrek.io/permissions"`
		}{}

		err = v.Claims(c.Request, tok, &claims, &custom)
		if err != nil {
			log.Println("invalid Claims:", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
			c.Abort()
			return
		}

		custom.Perms.Sort()
		for _, p := range perms {
			find := custom.Perms.Search(p)
			if find == custom.Perms.Len() || custom.Perms[find] != p {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "missing permissions"})
				c.Abort()
				log.Println("Missing permission:", p)
				return
			}
		}

		c.Set("user_id", custom.Subject)
		c.Next()
	}
}
