// Command opstoken prints an operator token for the order lookup endpoint.
// The signing secret is read from CHECKOUT_JWT_SECRET, the default lifetime
// from CHECKOUT_JWT_EXPIRATION.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go-checkout/pkg/jwtfactory"

	"github.com/go-chi/jwtauth/v5"
	"github.com/spf13/viper"
)

func main() {
	v := viper.New()
	v.SetEnvPrefix("CHECKOUT")
	v.SetDefault("jwt_expiration", 12*time.Hour)
	for _, key := range []string{"jwt_secret", "jwt_expiration"} {
		if err := v.BindEnv(key); err != nil {
			log.Fatal(err)
		}
	}

	subject := flag.String("s", "operator", "Token subject")
	ttl := flag.Duration("ttl", v.GetDuration("jwt_expiration"), "Token lifetime")
	flag.Parse()

	secret := v.GetString("jwt_secret")
	if secret == "" {
		log.Fatal("CHECKOUT_JWT_SECRET is not set")
	}

	tokenAuth := jwtauth.New("HS256", []byte(secret), nil)
	token, err := jwtfactory.New(tokenAuth, *ttl).Generate(*subject)
	if err != nil {
		log.Fatal(err)
	}
	_, _ = fmt.Fprintln(os.Stdout, token)
}
