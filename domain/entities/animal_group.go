package entities

import (
	"fmt"
	"strconv"
)

// GroupCount is the number of animal groups
const GroupCount = 25

// animalNames indexed by group number - 1
var animalNames = [GroupCount]string{
	"Avestruz", "Águia", "Burro", "Borboleta", "Cachorro",
	"Cabra", "Carneiro", "Camelo", "Cobra", "Coelho",
	"Cavalo", "Elefante", "Galo", "Gato", "Jacaré",
	"Leão", "Macaco", "Porco", "Pavão", "Peru",
	"Touro", "Tigre", "Urso", "Veado", "Vaca",
}

// GroupOf maps a two-digit ending (0..99) to its animal group (1..25).
// Each group covers four consecutive endings and group 25 wraps around to
// include 00: {97, 98, 99, 00}.
func GroupOf(ending int) (int, error) {
	if ending < 0 || ending > 99 {
		return 0, &InvalidDigitsError{Value: strconv.Itoa(ending), Reason: "ending must be within 00..99"}
	}
	if ending == 0 {
		return GroupCount, nil
	}
	return (ending + 3) / 4, nil
}

// GroupOfNumber derives the animal group from the last two digits of a drawn number
func GroupOfNumber(number string) (int, error) {
	if len(number) < 2 || !isDigits(number) {
		return 0, &InvalidDigitsError{Value: number, Reason: "need at least two digits to derive a group"}
	}
	ending, _ := strconv.Atoi(number[len(number)-2:])
	return GroupOf(ending)
}

// AnimalName returns the animal for a group number
func AnimalName(group int) string {
	if group < 1 || group > GroupCount {
		return ""
	}
	return animalNames[group-1]
}

// GroupEndings lists the four two-digit endings belonging to a group
func GroupEndings(group int) ([]string, error) {
	if group < 1 || group > GroupCount {
		return nil, fmt.Errorf("group %d out of range 1..%d", group, GroupCount)
	}
	endings := make([]string, 0, 4)
	for i := 3; i >= 0; i-- {
		ending := (group*4 - i) % 100
		endings = append(endings, fmt.Sprintf("%02d", ending))
	}
	return endings, nil
}

// ParseGroup parses a stored group guess ("01".."25")
func ParseGroup(guess string) (int, error) {
	if guess == "" || !isDigits(guess) {
		return 0, &InvalidDigitsError{Value: guess, Reason: "group guess must be numeric"}
	}
	n, _ := strconv.Atoi(guess)
	if n < 1 || n > GroupCount {
		return 0, &InvalidDigitsError{Value: guess, Reason: "group guess must be within 1..25"}
	}
	return n, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
