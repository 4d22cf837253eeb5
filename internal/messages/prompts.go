package messages

import (
	"fmt"
	"strings"
)

const (
	messageSystemPrompt  = "Ești un asistent specializat în crearea de mesaje personalizate în limba română pentru companii mici din România."
	templateSystemPrompt = "Ești un asistent specializat în crearea de șabloane de mesaje în limba română pentru companii mici din România."
)

func messagePrompt(p MessageParams, companyName string) string {
	var b strings.Builder
	b.WriteString("Generează un mesaj personalizat în limba română pentru un client. Mesajul trebuie să fie natural și să nu pară generat de AI.\n\n")
	b.WriteString("Detalii:\n")
	fmt.Fprintf(&b, "- Numele clientului: %s\n", p.ClientName)
	fmt.Fprintf(&b, "- Industria: %s\n", p.Industry)
	fmt.Fprintf(&b, "- Scopul mesajului: %s\n", p.Purpose)
	fmt.Fprintf(&b, "- Informații adiționale: %s\n", p.AdditionalInfo)
	fmt.Fprintf(&b, "- Tonul mesajului: %s\n", p.Tone)
	fmt.Fprintf(&b, "- Numele companiei: %s\n\n", companyName)
	b.WriteString("Mesajul trebuie să fie concis (maxim 200 de cuvinte), profesional și să includă detaliile specifice menționate mai sus.\n")
	b.WriteString("Nu include formule generice precum \"Sper că vă găsesc bine\" decât dacă este absolut necesar.\n")
	b.WriteString("Nu menționa că este un mesaj generat automat.\n")
	b.WriteString("Nu include placeholder-uri sau texte între paranteze.\n")
	return b.String()
}

func templatePrompt(p TemplateParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generează un șablon de mesaj în limba română pentru clienți din industria %s.\n", p.Industry)
	fmt.Fprintf(&b, "Șablonul va fi folosit pentru: %s.\n", p.Purpose)
	fmt.Fprintf(&b, "Tonul mesajului trebuie să fie: %s.\n\n", p.Tone)
	b.WriteString("Șablonul trebuie să includă variabile între paranteze pătrate pentru personalizare, de exemplu [NUME_CLIENT], [DATA], [SERVICIU], etc.\n")
	b.WriteString("Șablonul trebuie să fie concis (maxim 200 de cuvinte) și profesional.\n")
	return b.String()
}
