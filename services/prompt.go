package services

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `Tu es une IA qui joue à un jeu de devinette.
Le joueur doit deviner un mot en posant des questions.
Le mot à deviner est '%s'.

Instructions:
- Si c'est une question fermée, réponds par oui ou non
- Si c'est une question ouverte, réponds par une phrase
- Ne donne JAMAIS une description complète du mot
- NE DONNE JAMAIS LE MOT EN ENTIER
- Base ta réponse en tenant compte de l'historique des questions précédentes`

// SystemPrompt is the oracle instruction for a game around word.
func SystemPrompt(word string) string {
	return fmt.Sprintf(systemPromptTemplate, strings.ToLower(word))
}
