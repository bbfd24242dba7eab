package messages

import (
	"fmt"
	"strings"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/notify"
)

const systemPrompt = `Eres el asistente de %s, una empresa de servicios técnicos a domicilio en Ecuador.
Escribes mensajes cortos de WhatsApp en español, cordiales y claros, tuteando con respeto.
No inventes montos, fechas ni códigos: usa solo los datos que te doy. Máximo 80 palabras, sin hashtags.`

// BuildPrompt returns the system and user prompts for kind.
func BuildPrompt(business string, kind notify.Kind, f Facts) (string, string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Cliente: %s\n", f.CustomerName)
	if f.Service != "" {
		fmt.Fprintf(&b, "Servicio: %s\n", f.Service)
	}

	switch kind {
	case notify.KindQuoteSent:
		fmt.Fprintf(&b, "Cotización: %s\nTotal: %s %s\nAnticipo para agendar: %s %s\n",
			f.Code, f.Total.StringFixed(2), f.Currency, f.Advance.StringFixed(2), f.Currency)
		if f.ExpiresAt != nil {
			fmt.Fprintf(&b, "Válida hasta: %s\n", f.ExpiresAt.Format("02/01/2006"))
		}
		b.WriteString("Escribe el mensaje que envía la cotización y pide confirmar con el anticipo.")
	case notify.KindAdvancePaid:
		fmt.Fprintf(&b, "Orden: %s\nAnticipo recibido: %s %s\nSaldo pendiente: %s %s\n",
			f.Code, f.Advance.StringFixed(2), f.Currency, f.Balance.StringFixed(2), f.Currency)
		b.WriteString("Agradece el pago del anticipo y avisa que coordinaremos la visita del técnico.")
	case notify.KindOrderClosed:
		fmt.Fprintf(&b, "Orden: %s\nTotal pagado: %s %s\n", f.Code, f.Total.StringFixed(2), f.Currency)
		b.WriteString("Agradece la confianza, confirma que el trabajo quedó cerrado y recuerda que tiene garantía.")
	case notify.KindWarrantyFiled:
		fmt.Fprintf(&b, "Caso de garantía: %s\nOrden original: %s\n", f.Code, f.OrderCode)
		b.WriteString("Confirma que recibimos el reclamo de garantía y que un técnico lo revisará pronto.")
	default:
		return "", "", fmt.Errorf("unknown message kind %q", kind)
	}
	return fmt.Sprintf(systemPrompt, business), b.String(), nil
}
