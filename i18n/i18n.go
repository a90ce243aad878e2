// Package i18n holds the message catalogue for user-facing strings.
package i18n

import "strings"

// DefaultLang is used when no supported language is requested.
const DefaultLang = "en"

var catalogue = map[string]map[string]string{
	"en": {
		"app_name":         "Questions & Answers",
		"nav_home":         "Home",
		"nav_ask":          "Ask",
		"nav_unanswered":   "Unanswered",
		"nav_users":        "Users",
		"nav_login":        "Login",
		"nav_register":     "Register",
		"nav_logout":       "Logout",
		"home_title":       "Answered questions",
		"home_empty":       "No answered questions yet.",
		"asked_by":         "Asked by",
		"answered_by":      "Answered by",
		"question_title":   "Question",
		"answer_label":     "Answer",
		"register_title":   "Register",
		"login_title":      "Login",
		"name_label":       "Username",
		"password_label":   "Password",
		"ask_title":        "Ask a question",
		"question_label":   "Question",
		"expert_label":     "Expert",
		"no_experts":       "No experts available yet.",
		"submit":           "Submit",
		"answer_title":     "Answer question",
		"unanswered_title": "Unanswered questions",
		"unanswered_empty": "Nothing waiting for you.",
		"users_title":      "Users",
		"col_id":           "ID",
		"col_name":         "Name",
		"col_expert":       "Expert",
		"col_admin":        "Admin",
		"promote":          "Promote",
		"yes":              "Yes",
		"no":               "No",
		"required":         "Required",
		"invalid_expert":   "Choose an expert from the list.",
		"username_taken":   "Username already taken, Try different username.",
		"login_mismatch":   "Username or password did not match. Try again.",
		"not_found":        "Not found",
		"internal_error":   "Internal server error",
	},
	"fr": {
		"app_name":         "Questions & Réponses",
		"nav_home":         "Accueil",
		"nav_ask":          "Poser",
		"nav_unanswered":   "Sans réponse",
		"nav_users":        "Utilisateurs",
		"nav_login":        "Connexion",
		"nav_register":     "Inscription",
		"nav_logout":       "Déconnexion",
		"home_title":       "Questions répondues",
		"home_empty":       "Aucune question répondue pour le moment.",
		"asked_by":         "Posée par",
		"answered_by":      "Répondue par",
		"question_title":   "Question",
		"answer_label":     "Réponse",
		"register_title":   "Inscription",
		"login_title":      "Connexion",
		"name_label":       "Nom d'utilisateur",
		"password_label":   "Mot de passe",
		"ask_title":        "Poser une question",
		"question_label":   "Question",
		"expert_label":     "Expert",
		"no_experts":       "Aucun expert disponible pour le moment.",
		"submit":           "Envoyer",
		"answer_title":     "Répondre à la question",
		"unanswered_title": "Questions sans réponse",
		"unanswered_empty": "Rien en attente.",
		"users_title":      "Utilisateurs",
		"col_id":           "ID",
		"col_name":         "Nom",
		"col_expert":       "Expert",
		"col_admin":        "Admin",
		"promote":          "Promouvoir",
		"yes":              "Oui",
		"no":               "Non",
		"required":         "Requis",
		"invalid_expert":   "Choisissez un expert dans la liste.",
		"username_taken":   "Nom d'utilisateur déjà pris, essayez-en un autre.",
		"login_mismatch":   "Nom d'utilisateur ou mot de passe incorrect. Réessayez.",
		"not_found":        "Introuvable",
		"internal_error":   "Erreur interne du serveur",
	},
}

// Supported reports whether lang has a catalogue.
func Supported(lang string) bool {
	_, ok := catalogue[lang]
	return ok
}

// T translates code into lang, falling back to English and then to the code itself.
func T(lang, code string) string {
	if msgs, ok := catalogue[lang]; ok {
		if msg, ok := msgs[code]; ok {
			return msg
		}
	}
	if msg, ok := catalogue[DefaultLang][code]; ok {
		return msg
	}
	return code
}

// DetectLanguage picks the first supported language from an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		primary, _, _ := strings.Cut(strings.ToLower(tag), "-")
		if Supported(primary) {
			return primary
		}
	}
	return DefaultLang
}
