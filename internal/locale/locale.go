// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package locale provides the localized user-facing strings.
//
// Strings live in an x/text message catalog keyed by Key. English is the
// fallback for unsupported languages and for keys missing in a translation.
package locale

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a localized string.
type Key string

// Error texts shown in place of an assistant reply.
const (
	RateLimitError Key = "rateLimitError"
	ServerError    Key = "serverError"
	NetworkError   Key = "networkError"
)

// Role labels.
const (
	RoleUser      Key = "roleUser"
	RoleAssistant Key = "roleAssistant"
)

// UI chrome.
const (
	Conversations     Key = "conversations"
	NewConversation   Key = "newConversation"
	EmptyConversation Key = "emptyConversation"
	InputPlaceholder  Key = "inputPlaceholder"
	Typing            Key = "typing"
	WelcomeTitle      Key = "welcomeTitle"
	WelcomeBody       Key = "welcomeBody"
	SourcesLabel      Key = "sourcesLabel"
	PageLabel         Key = "pageLabel"      // %d page number
	ConfirmDelete     Key = "confirmDelete"  // %s conversation name
	Exported          Key = "exported"       // %s path
	Copied            Key = "copied"
	Cancelled         Key = "cancelled"
	FreshExists       Key = "freshExists"
	LastConversation  Key = "lastConversation"
	Busy              Key = "busy"
	HealthOK          Key = "healthOK"
	HealthNoDocument  Key = "healthNoDocument"
	HealthDown        Key = "healthDown"
	StatsFooter       Key = "statsFooter" // %d fragments, %s total, %s first fragment
	Pinned            Key = "pinned"
	Unpinned          Key = "unpinned"
	HelpHint          Key = "helpHint"
	RenamePrompt      Key = "renamePrompt"
)

// =============================================================================
// CATALOG
// =============================================================================

var (
	english = language.English
	spanish = language.Spanish

	supported = []language.Tag{english, spanish}
	matcher   = language.NewMatcher(supported)

	buildOnce sync.Once
	cat       catalog.Catalog
)

var translations = map[language.Tag]map[Key]string{
	english: {
		RateLimitError:    "The service is receiving too many requests. Please wait a moment and try again.",
		ServerError:       "The service could not answer right now. Please try again later.",
		NetworkError:      "Error: Could not connect to the service.",
		RoleUser:          "You",
		RoleAssistant:     "AI",
		Conversations:     "Conversations",
		NewConversation:   "New Chat",
		EmptyConversation: "Empty conversation",
		InputPlaceholder:  "Ask a question about the document...",
		Typing:            "AI is typing",
		WelcomeTitle:      "Welcome",
		WelcomeBody:       "Select a conversation or start a new one.",
		SourcesLabel:      "Sources",
		PageLabel:         "Page %d",
		ConfirmDelete:     "Delete %q? This cannot be undone. (y/n)",
		Exported:          "Exported to %s",
		Copied:            "Copied the last answer to the clipboard",
		Cancelled:         "Request cancelled",
		FreshExists:       "An empty conversation is already open",
		LastConversation:  "The last conversation cannot be deleted",
		Busy:              "Wait for the current answer to finish",
		HealthOK:          "Service healthy, document loaded",
		HealthNoDocument:  "Service up, document not loaded",
		HealthDown:        "Service unreachable",
		StatsFooter:       "%d fragments in %s (first after %s)",
		Pinned:            "Pinned",
		Unpinned:          "Unpinned",
		HelpHint:          "tab switch | ctrl+n new | ctrl+p pin | ctrl+r rename | ctrl+d delete | ctrl+e export | ctrl+l reset | ctrl+y copy | esc cancel | ctrl+c quit",
		RenamePrompt:      "Rename conversation: ",
	},
	spanish: {
		RateLimitError:    "El servicio está recibiendo demasiadas solicitudes. Espera un momento e inténtalo de nuevo.",
		ServerError:       "El servicio no pudo responder en este momento. Inténtalo más tarde.",
		NetworkError:      "Error: no se pudo conectar con el servicio.",
		RoleUser:          "Tú",
		RoleAssistant:     "IA",
		Conversations:     "Conversaciones",
		NewConversation:   "Nuevo chat",
		EmptyConversation: "Conversación vacía",
		InputPlaceholder:  "Pregunta algo sobre el documento...",
		Typing:            "La IA está escribiendo",
		WelcomeTitle:      "Bienvenido",
		WelcomeBody:       "Selecciona una conversación o empieza una nueva.",
		SourcesLabel:      "Fuentes",
		PageLabel:         "Página %d",
		ConfirmDelete:     "¿Eliminar %q? No se puede deshacer. (s/n)",
		Exported:          "Exportado a %s",
		Copied:            "Última respuesta copiada al portapapeles",
		Cancelled:         "Solicitud cancelada",
		FreshExists:       "Ya hay una conversación vacía abierta",
		LastConversation:  "No se puede eliminar la última conversación",
		Busy:              "Espera a que termine la respuesta actual",
		HealthOK:          "Servicio disponible, documento cargado",
		HealthNoDocument:  "Servicio disponible, documento no cargado",
		HealthDown:        "Servicio inaccesible",
		StatsFooter:       "%d fragmentos en %s (primero tras %s)",
		Pinned:            "Fijada",
		Unpinned:          "No fijada",
		RenamePrompt:      "Renombrar conversación: ",
	},
}

// buildCatalog registers every translation, filling gaps with English.
func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder()
	for _, tag := range supported {
		for key, fallback := range translations[english] {
			msg, ok := translations[tag][key]
			if !ok {
				msg = fallback
			}
			// Only fails for malformed tags or messages, both static here.
			_ = b.SetString(tag, string(key), msg)
		}
	}
	return b
}

// =============================================================================
// LOCALIZER
// =============================================================================

// Localizer formats strings for one language. It is safe for concurrent
// use.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a localizer for the best supported match of lang, which may be
// a BCP 47 tag ("es", "es-MX") or a POSIX locale ("es_ES.UTF-8"). Unknown or
// empty values fall back to English.
func New(lang string) *Localizer {
	buildOnce.Do(func() { cat = buildCatalog() })

	tag := english
	if parsed, err := language.Parse(normalizePOSIX(lang)); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Default returns the English localizer.
func Default() *Localizer {
	return New("en")
}

// Tag returns the language in use.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// Text returns the string for key, formatted with args.
func (l *Localizer) Text(key Key, args ...any) string {
	return l.printer.Sprintf(string(key), args...)
}

// Supported returns the languages with a translation.
func Supported() []language.Tag {
	out := make([]language.Tag, len(supported))
	copy(out, supported)
	return out
}

// normalizePOSIX turns "es_ES.UTF-8" into "es-ES".
func normalizePOSIX(lang string) string {
	for i, r := range lang {
		if r == '.' || r == '@' {
			lang = lang[:i]
			break
		}
	}
	out := []byte(lang)
	for i, c := range out {
		if c == '_' {
			out[i] = '-'
		}
	}
	return string(out)
}
