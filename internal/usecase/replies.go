// File: internal/usecase/replies.go
package usecase

import (
	"fmt"
	"time"
)

// User-facing text. The confirmation prompt is part of the conversation
// protocol: an ambiguous answer must re-emit it verbatim, so it is stored
// on the pending action and reused from there.
const (
	confirmPrompt = "Por favor responde 'sí' para confirmar o 'no' para cancelar."

	msgKeepUnchanged   = "Tu cita se mantiene sin cambios."
	msgDraftAbandoned  = "Está bien, no haremos cambios por ahora."
	msgBackendApology  = "Lo siento, en este momento no puedo acceder al sistema de citas. Por favor intenta de nuevo más tarde."
	msgNoAppointment   = "No tienes citas programadas por el momento."
	msgCancelled       = "✅ Tu cita ha sido cancelada."
	msgPatientNotFound = "No encontré tu registro de paciente. Verifica que escribes desde el número registrado en el centro."

	askDate = "¿Para qué fecha te gustaría la cita? Puedes decirme por ejemplo 'mañana', 'el lunes' o una fecha (día/mes/año)."
	askTime = "¿A qué hora te gustaría la cita? Atendemos de 07:00 a 19:00."

	msgPastDate   = "Esa fecha ya pasó. ¿Podrías indicarme una fecha futura?"
	msgPastTime   = "Esa hora ya pasó. ¿Podrías indicarme otra hora?"
	msgTooFar     = "Solo puedo agendar citas dentro de los próximos 90 días."
	msgSunday     = "Los domingos el centro permanece cerrado. ¿Te sirve otro día?"
	msgOutOfHours = "Nuestro horario de atención es de 07:00 a 19:00. ¿Qué hora dentro de ese horario te conviene?"
	msgBadMinutes = "Las citas se agendan en punto o y media, por ejemplo 10:00 o 10:30."

	msgScheduledFmt   = "✅ ¡Cita agendada! Te esperamos el %s a las %s."
	msgRescheduledFmt = "✅ ¡Cita reprogramada! Tu nueva cita es el %s a las %s."
	msgNextApptFmt    = "Tu próxima cita es el %s a las %s."

	defaultVisitReason = "Consulta de seguimiento"
)

var weekdayNamesES = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var monthNamesES = [...]string{"", "enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

func formatDateES(t time.Time) string {
	return fmt.Sprintf("%s %d de %s", weekdayNamesES[t.Weekday()], t.Day(), monthNamesES[t.Month()])
}

func formatTimeES(t time.Time) string {
	return t.Format("15:04")
}

// fallbackReply is the canned answer used when text generation is
// unavailable or produced nothing usable. norm must already be normalized.
func fallbackReply(norm, clinicName string) string {
	switch {
	case matchesAny(norm, []string{"hola", "buenos dias", "buenas tardes", "buenas noches"}):
		return "¡Hola! Soy el asistente virtual del centro de salud " + clinicName + ". ¿En qué puedo ayudarte?"
	case containsPhrase(norm, "gracias"):
		return "¡De nada! Estoy para ayudarte."
	case matchesAny(norm, []string{"adios", "hasta luego", "chao"}):
		return "¡Hasta pronto! Cuídate mucho."
	default:
		return "Disculpa, no logré entenderte. ¿Podrías repetirlo con otras palabras?"
	}
}
