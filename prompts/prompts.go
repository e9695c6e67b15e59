// Package prompts holds the prompt templates sent to the generation models and
// the list of space entities used for random topics.
package prompts

import (
	"math/rand"
	"strings"
)

const (
	entityPlaceholder = "{{entity}}"
	quotePlaceholder  = "{{quote}}"
)

// Quote asks for one short fact about {{entity}}.
const Quote = `You are a space educator bot. Your task is to generate a single fun fact about the following celestial object:

**Entity**: {{entity}}

Guidelines:
- Keep the fact short (1–3 sentences).
- Make it surprising, quirky, or awe-inspiring.
- Avoid technical jargon unless it's explained simply.
- Do not repeat facts already widely known (e.g., "The Sun is hot").

Output format:
[Your fact here]`

// Image asks for a deep-space image prompt that fits {{quote}}. The answer has
// an "Image Prompt:" section followed by a "Progression Text:" section.
const Image = `You are a cosmic visual imagination agent. Your task is to describe a breathtaking deep-space image that visually represents the meaning of the given quote.

Input:
Quote: "{{quote}}"

Instructions:
- Visual style: deep space, Hubble/James Webb telescope aesthetic. High contrast, realistic textures, vast scale.
- Elements: distant galaxies, vibrant nebulae, sparkling starfields, deep void blacks, quasars.
- Composition: vertical (9:16). Keep the lower third dark and uncluttered: the quote is drawn there afterwards in white bold sans-serif, so the image itself must not contain any text.
- Interpretation: metaphorical but grounded in the grandeur of the universe.
- Mood: awe-inspiring, infinite, silent, majestic.

Output format:
Image Prompt: [Detailed description of the scene, dark negative space in the lower third, vertical 9:16 aspect ratio]
Progression Text: [A poetic 6–8 word phrase ending with ellipses]
Transparent Background: false`

// Caption asks for an Instagram caption for {{quote}}.
const Caption = `You are a social media expert. Generate an engaging Instagram caption for this quote/fact:
"{{quote}}"

Requirements:
- Start with a hook or emoji.
- Include the quote/fact naturally if needed, or just comment on it.
- Add 15-20 relevant, high-reach hashtags (e.g., #space, #universe, #astronomy, #cosmos, etc.).
- Keep it clean and spaced out.

Output ONLY the caption text.`

// Entities are the topics picked for random requests.
var Entities = []string{
	"Moon", "Sun", "Mercury", "Venus", "Earth", "Mars", "Jupiter", "Saturn", "Uranus", "Neptune",
	"Pluto", "Ceres", "Eris", "Haumea", "Makemake",
	"Asteroids", "Comets", "Meteorites",
	"Milky Way", "Andromeda", "Sombrero Galaxy", "Whirlpool Galaxy",
	"Black Holes", "Neutron Stars", "Pulsars", "Quasars",
	"Alpha Centauri", "Betelgeuse", "Sirius", "Polaris", "Vega",
	"Orion Nebula", "Crab Nebula", "Carina Nebula",
	"Exoplanets", "Star Clusters", "Cosmic Microwave Background",
}

// ForEntity fills the quote template.
func ForEntity(entity string) string {
	return strings.ReplaceAll(Quote, entityPlaceholder, entity)
}

// ForQuote fills a template that takes a quote (Image or Caption).
func ForQuote(template, quote string) string {
	return strings.ReplaceAll(template, quotePlaceholder, quote)
}

// RandomEntity picks an entity. A nil rng uses the global source.
func RandomEntity(rng *rand.Rand) string {
	if rng == nil {
		return Entities[rand.Intn(len(Entities))]
	}
	return Entities[rng.Intn(len(Entities))]
}

// IsEntity reports whether name is one of Entities.
func IsEntity(name string) bool {
	for _, e := range Entities {
		if e == name {
			return true
		}
	}
	return false
}
