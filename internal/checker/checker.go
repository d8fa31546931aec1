// Package checker implements the round checker for the profile service:
// five phases that plant a flag, retrieve it, inject noise traffic and
// demonstrate the backdoor exploit, bridged across process invocations
// by a persistent chain ledger.
package checker

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"go.uber.org/zap"

	"github.com/mkalinin42/fastvuln/internal/models"
)

// bioPreamble precedes the planted value in every bio. The planted value
// must stay the final whitespace-delimited token: GetFlag and Exploit
// recover it by splitting on whitespace and taking the last element.
const bioPreamble = "Hello, I'm checker, looking services with good SLA.\nMy favorite dish is: "

// dishes is the noise vocabulary. Noise rounds plant one of these
// instead of a flag.
var dishes = []string{
	"pineapple on pizza",
	"spaghetti with strawberry",
	"spaghetti with ketchup",
}

// Ledger keys shared between the plant and retrieve phases of a round.
const (
	keyUserdata = "userdata"
	keyDish     = "dish"
)

// Checker runs the check phases for flag slot 0 against one service
// instance. Each phase is a fresh trial: running a plant phase twice
// creates two unrelated accounts.
type Checker struct {
	log *zap.Logger
}

// New constructs a Checker logging through log.
func New(log *zap.Logger) *Checker {
	return &Checker{log: log}
}

// PutFlag registers a throwaway account, embeds flag as the last token
// of its bio and stores the credentials (without email) under the
// lineage's userdata key. It returns the username as the attack info
// published for this planted instance.
func (c *Checker) PutFlag(ctx context.Context, client *Client, db ChainDB, flag string) (string, error) {
	creds := randomCredentials()
	if err := client.Register(ctx, creds); err != nil {
		return "", Mumble("Faulty register", err)
	}
	if err := client.Login(ctx, creds); err != nil {
		return "", Mumble("Faulty login", err)
	}

	fullName := randHex(8)
	bio := bioPreamble + flag
	update := models.ProfileUpdate{FullName: &fullName, Bio: &bio}
	if err := client.PutProfile(ctx, update); err != nil {
		return "", Mumble("Faulty profile", err)
	}

	creds.Email = ""
	if err := db.Set(ctx, keyUserdata, creds); err != nil {
		return "", err
	}
	return creds.Username, nil
}

// GetFlag logs back in with the credentials planted earlier in this
// lineage and verifies that flag is still the last token of the bio.
func (c *Checker) GetFlag(ctx context.Context, client *Client, db ChainDB, flag string) error {
	var creds Credentials
	if err := db.Get(ctx, keyUserdata, &creds); err != nil {
		if isMissingState(err) {
			return Mumble("Missing data from previous round", err)
		}
		return err
	}
	if err := client.Login(ctx, creds); err != nil {
		return Mumble("Faulty login", err)
	}

	profile, err := client.GetProfile(ctx)
	if err != nil {
		return Mumble("Faulty profile", err)
	}
	got, ok := lastBioToken(profile)
	if !ok || got != flag {
		return Mumble("Faulty profile data", nil)
	}
	return nil
}

// PutNoise plants a dish from the noise vocabulary the same way PutFlag
// plants a flag, remembering both the credentials and the dish.
func (c *Checker) PutNoise(ctx context.Context, client *Client, db ChainDB) error {
	creds := randomCredentials()
	if err := client.Register(ctx, creds); err != nil {
		return Mumble("Faulty register", err)
	}
	if err := client.Login(ctx, creds); err != nil {
		return Mumble("Faulty login", err)
	}

	dish := dishes[randIndex(len(dishes))]
	fullName := randHex(8)
	bio := bioPreamble + dish
	update := models.ProfileUpdate{FullName: &fullName, Bio: &bio}
	if err := client.PutProfile(ctx, update); err != nil {
		return Mumble("Faulty profile", err)
	}

	creds.Email = ""
	if err := db.Set(ctx, keyUserdata, creds); err != nil {
		return err
	}
	return db.Set(ctx, keyDish, dish)
}

// GetNoise verifies the planted dish still appears somewhere in the bio.
// Unlike GetFlag this is a substring check: noise only proves the write
// was durable and readable, not exactly formatted.
func (c *Checker) GetNoise(ctx context.Context, client *Client, db ChainDB) error {
	var creds Credentials
	if err := db.Get(ctx, keyUserdata, &creds); err != nil {
		if isMissingState(err) {
			return Mumble("Missing data from previous round", err)
		}
		return err
	}
	var dish string
	if err := db.Get(ctx, keyDish, &dish); err != nil {
		if isMissingState(err) {
			return Mumble("Missing data from previous round", err)
		}
		return err
	}
	if err := client.Login(ctx, creds); err != nil {
		return Mumble("Faulty login", err)
	}

	profile, err := client.GetProfile(ctx)
	if err != nil {
		return Mumble("Faulty profile", err)
	}
	if profile.Bio == nil || !strings.Contains(*profile.Bio, dish) {
		return Mumble("Faulty profile data", nil)
	}
	return nil
}

// Exploit demonstrates the backdoor: given a victim username observed on
// the wire, it reads the profile with no authentication and returns the
// last bio token. A failed lookup returns an empty flag, not an error;
// the exploit only has to prove feasibility.
func (c *Checker) Exploit(ctx context.Context, client *Client, attackInfo string) (string, error) {
	if attackInfo == "" {
		return "", Mumble("Missing attack info", nil)
	}

	profile, err := client.Backdoor(ctx, attackInfo)
	if err != nil {
		c.log.Info("backdoor lookup failed", zap.Error(err))
		return "", nil
	}
	flag, ok := lastBioToken(profile)
	if !ok {
		return "", nil
	}
	return flag, nil
}

func randomCredentials() Credentials {
	return Credentials{
		Username: randHex(16),
		Email:    randHex(16),
		Password: randHex(16),
	}
}

// randHex returns the hex encoding of n random bytes.
func randHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func randIndex(n int) int {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(i.Int64())
}

func lastBioToken(profile *models.Profile) (string, bool) {
	if profile.Bio == nil {
		return "", false
	}
	fields := strings.Fields(*profile.Bio)
	if len(fields) == 0 {
		return "", false
	}
	return fields[len(fields)-1], true
}

func isMissingState(err error) bool {
	return errors.Is(err, ErrMissingState)
}
