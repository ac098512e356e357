// Package seed fills a development database with generated restaurants and users.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"

	"feastly/internal/models"
	"feastly/internal/store"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

const (
	DefaultRestaurants = 20
	DefaultUsers       = 5
)

var cuisines = []string{
	"Italian", "Mexican", "Chinese", "Japanese", "Indian", "American", "Thai",
	"Mediterranean", "Greek", "French", "Spanish", "Korean", "Vietnamese",
}

// Store is the storage the seeder writes to
type Store interface {
	CreateRestaurant(ctx context.Context, restaurant *models.Restaurant) error
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	DeleteAllRestaurants(ctx context.Context) error
	DeleteAllUsers(ctx context.Context) error
}

// PasswordHasher hashes generated passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Options controls a seeding run
type Options struct {
	Restaurants   int
	Users         int
	Clear         bool
	AdminEmail    string
	AdminPassword string
}

// Result summarises a seeding run
type Result struct {
	RestaurantsCreated int  `json:"restaurantsCreated"`
	UsersCreated       int  `json:"usersCreated"`
	AdminCreated       bool `json:"adminCreated"`
}

// Seeder generates fake data. It is safe for concurrent use.
type Seeder struct {
	store  Store
	hasher PasswordHasher

	mu   sync.Mutex
	fake faker.Faker
}

// New creates a seeder with a random seed
func New(st Store, hasher PasswordHasher) *Seeder {
	return &Seeder{store: st, hasher: hasher, fake: faker.New()}
}

// NewWithSeed creates a seeder whose output is reproducible
func NewWithSeed(st Store, hasher PasswordHasher, seed int64) *Seeder {
	return &Seeder{store: st, hasher: hasher, fake: faker.NewWithSeed(rand.NewSource(seed))}
}

// Run seeds the database according to opts
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res Result
	if opts.Restaurants <= 0 {
		opts.Restaurants = DefaultRestaurants
	}
	if opts.Users <= 0 {
		opts.Users = DefaultUsers
	}

	if opts.Clear {
		if err := s.store.DeleteAllRestaurants(ctx); err != nil {
			return res, err
		}
		if err := s.store.DeleteAllUsers(ctx); err != nil {
			return res, err
		}
		log.Printf("seed: cleared restaurants and users")
	}

	for i := 0; i < opts.Restaurants; i++ {
		r := s.restaurant()
		if err := s.store.CreateRestaurant(ctx, &r); err != nil {
			return res, err
		}
		res.RestaurantsCreated++
	}

	for i, attempts := 0, 0; i < opts.Users; attempts++ {
		u, err := s.user()
		if err != nil {
			return res, err
		}
		err = s.store.CreateUser(ctx, &u)
		if errors.Is(err, store.ErrEmailTaken) && attempts < opts.Users*3 {
			continue
		}
		if err != nil {
			return res, err
		}
		res.UsersCreated++
		i++
	}

	if opts.AdminEmail != "" {
		created, err := s.ensureAdmin(ctx, opts.AdminEmail, opts.AdminPassword)
		if err != nil {
			return res, err
		}
		res.AdminCreated = created
	}

	log.Printf("seed: created %d restaurants and %d users", res.RestaurantsCreated, res.UsersCreated)
	return res, nil
}

// Restaurant generates one restaurant with its menu without storing it
func (s *Seeder) Restaurant() models.Restaurant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restaurant()
}

func (s *Seeder) restaurant() models.Restaurant {
	f := s.fake

	var open, closeAt int
	if f.Boolean().BoolWithChance(20) {
		open, closeAt = f.IntBetween(17, 20), f.IntBetween(2, 6)
	} else {
		open, closeAt = f.IntBetween(7, 11), f.IntBetween(19, 23)
	}

	var days models.IntSlice
	for d := 0; d < 7; d++ {
		if f.Boolean().BoolWithChance(90) {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		days = models.IntSlice{0, 1, 2, 3, 4, 5, 6}
	}

	menu := make([]models.MenuItem, f.IntBetween(6, 15))
	for i := range menu {
		menu[i] = s.menuItem()
	}

	return models.Restaurant{
		Name:           f.Company().Name(),
		Description:    f.Company().CatchPhrase(),
		Address:        s.address(),
		Cuisine:        s.pick(cuisines, f.IntBetween(1, 3)),
		Rating:         f.Float64(1, 1, 5),
		DeliveryTime:   f.IntBetween(15, 60),
		DeliveryFee:    f.Float64(2, 0, 10),
		MinOrderAmount: f.Float64(2, 10, 25),
		Menu:           menu,
		OpeningHours: models.OpeningHours{
			Open:     fmt.Sprintf("%02d:00", open),
			Close:    fmt.Sprintf("%02d:00", closeAt),
			DaysOpen: days,
		},
		Image:          image(),
		Featured:       f.Boolean().BoolWithChance(30),
		ManuallyClosed: f.Boolean().BoolWithChance(20),
	}
}

func (s *Seeder) menuItem() models.MenuItem {
	f := s.fake
	categories := make([]string, len(models.MenuCategories))
	for i, c := range models.MenuCategories {
		categories[i] = string(c)
	}

	return models.MenuItem{
		Name:        fmt.Sprintf("%s %s", f.Lorem().Word(), f.Food().Vegetable()),
		Description: f.Lorem().Sentence(10),
		Price:       f.Float64(2, 5, 30),
		Image:       image(),
		Category:    f.RandomStringElement(categories),
		Popular:     f.Boolean().BoolWithChance(20),
		Available:   f.Boolean().BoolWithChance(90),
		Allergens:   s.pick(models.Allergens, f.IntBetween(0, 3)),
	}
}

func (s *Seeder) user() (models.User, error) {
	f := s.fake

	hash, err := s.hasher.HashPassword(f.Internet().Password())
	if err != nil {
		return models.User{}, err
	}

	addresses := make([]models.UserAddress, f.IntBetween(1, 3))
	for i := range addresses {
		addresses[i] = models.UserAddress{Address: s.address(), IsDefault: i == 0}
	}

	return models.User{
		Name:         f.Person().Name(),
		Email:        models.NormalizeEmail(f.Internet().Email()),
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		Addresses:    addresses,
		PhoneNumber:  fmt.Sprintf("%d%09d", f.IntBetween(2, 9), f.IntBetween(0, 999999999)),
	}, nil
}

func (s *Seeder) ensureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = models.NormalizeEmail(email)
	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return false, err
	}

	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return false, err
	}
	admin := models.User{Name: "Administrator", Email: email, PasswordHash: hash, Role: models.RoleAdmin}
	if err := s.store.CreateUser(ctx, &admin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Seeder) address() models.Address {
	a := s.fake.Address()
	return models.Address{
		Street:  a.StreetAddress(),
		City:    a.City(),
		State:   a.State(),
		ZipCode: fmt.Sprintf("%05d", s.fake.IntBetween(10000, 99999)),
	}
}

// pick returns n distinct elements of list in random order
func (s *Seeder) pick(list []string, n int) models.StringSlice {
	if n > len(list) {
		n = len(list)
	}
	pool := append([]string(nil), list...)
	out := make(models.StringSlice, 0, n)
	for i := 0; i < n; i++ {
		j := s.fake.IntBetween(i, len(pool)-1)
		pool[i], pool[j] = pool[j], pool[i]
		out = append(out, pool[i])
	}
	return out
}

func image() string {
	return "https://picsum.photos/seed/" + cuid.Slug() + "/200"
}
