package utils

import (
	"math/rand"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator produces unique names for unnamed entities.
// Source is reseeded when generator is first used, so one conversion
// always gets the same sequence.
type RandomNameGenerator map[string]struct{}

func (rng *RandomNameGenerator) lazyInit() {
	if *rng == nil {
		*rng = make(map[string]struct{})
		randomdata.CustomRand(rand.New(rand.NewSource(0)))
	}
}

// Reserve marks name as taken, so RandomName never returns it
func (rng *RandomNameGenerator) Reserve(name string) {
	rng.lazyInit()
	(*rng)[name] = struct{}{}
}

func (rng *RandomNameGenerator) RandomName() string {
	rng.lazyInit()
	for {
		name := randomdata.SillyName()
		if _, exists := (*rng)[name]; !exists {
			(*rng)[name] = struct{}{}
			return name
		}
	}
}
