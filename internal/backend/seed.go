package backend

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"bizquiz/internal/wire"
)

// SeedFile is the YAML layout accepted by Seed.
type SeedFile struct {
	Businesses []SeedBusiness `yaml:"businesses"`
	Users      []SeedUser     `yaml:"users"`
}

type SeedBusiness struct {
	Label     string         `yaml:"label"`
	Questions []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
	Scores   []int    `yaml:"scores"`
	Answer   string   `yaml:"answer"`
	Lang     string   `yaml:"lang"`
}

type SeedUser struct {
	Fullname    string `yaml:"fullname"`
	Age         int    `yaml:"age"`
	PhoneNumber string `yaml:"phone_number"`
	Password    string `yaml:"password"`
	Subscribed  bool   `yaml:"subscribed"`
}

func LoadSeed(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, eris.Wrapf(err, "seed: read %s", path)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return SeedFile{}, eris.Wrapf(err, "seed: decode %s", path)
	}
	return seed, nil
}

// Seed loads the seed content into an empty store. A store that already has
// businesses is left untouched.
func Seed(ctx context.Context, store Store, seed SeedFile) error {
	existing, err := store.ListBusinesses(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		zap.L().Info("store already populated, skipping seed", zap.Int("businesses", len(existing)))
		return nil
	}

	validate := newValidator()
	questionCount := 0
	for _, item := range seed.Businesses {
		business, err := store.CreateBusiness(ctx, item.Label)
		if err != nil {
			return eris.Wrapf(err, "seed: business %q", item.Label)
		}
		for _, q := range item.Questions {
			question := seedQuestion(business.ID, q)
			if err := validate.Struct(question); err != nil {
				return eris.Wrapf(err, "seed: question %q", q.Question)
			}
			if _, err := store.CreateQuestion(ctx, question); err != nil {
				return eris.Wrapf(err, "seed: question %q", q.Question)
			}
			questionCount++
		}
	}

	for _, user := range seed.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return eris.Wrap(err, "seed: hash password")
		}
		created, err := store.CreateUser(ctx, wire.RegisterRequest{
			Fullname:    user.Fullname,
			Age:         user.Age,
			PhoneNumber: user.PhoneNumber,
			Password:    user.Password,
		}, hash)
		if err != nil {
			return eris.Wrapf(err, "seed: user %q", user.PhoneNumber)
		}
		if user.Subscribed {
			if err := store.SetSubscribed(ctx, created.ID, true); err != nil {
				return eris.Wrapf(err, "seed: subscribe %q", user.PhoneNumber)
			}
		}
	}

	zap.L().Info("store seeded",
		zap.Int("businesses", len(seed.Businesses)),
		zap.Int("questions", questionCount),
		zap.Int("users", len(seed.Users)),
	)
	return nil
}

func seedQuestion(businessID int, q SeedQuestion) wire.NewQuestion {
	var options [4]string
	var scores [4]*int
	for idx := 0; idx < len(options) && idx < len(q.Options); idx++ {
		options[idx] = q.Options[idx]
		if idx < len(q.Scores) {
			score := q.Scores[idx]
			scores[idx] = &score
		}
	}
	return wire.NewQuestion{
		BusinessID:   businessID,
		Question:     q.Question,
		OptionA:      options[0],
		OptionB:      options[1],
		OptionC:      options[2],
		OptionD:      options[3],
		OptionAScore: scores[0],
		OptionBScore: scores[1],
		OptionCScore: scores[2],
		OptionDScore: scores[3],
		Answer:       q.Answer,
		Lang:         q.Lang,
	}
}
