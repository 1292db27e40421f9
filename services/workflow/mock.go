package workflow

import (
	"visaworkflow-backend/lib/posts"
	"visaworkflow-backend/lib/visa"
)

// andorraIR1 is the record bundled for the U.S. Consulate General Barcelona,
// which processes immediate relative visas for residents of Andorra.
func andorraIR1() visa.Record {
	return visa.NewRecord(map[visa.CategoryKey]visa.Content{
		visa.Steps: visa.TextContent(
			"1. File Petition (Form I-130): The U.S. citizen spouse files Form I-130 with USCIS.",
			"2. NVC Case Creation: Once approved, the case is sent to the National Visa Center (NVC).",
			"3. Pay Fees: Pay the Immigrant Visa Application Processing Fee and Affidavit of Support Fee.",
			"4. Complete DS-260: Fill out the online Immigrant Visa Application (Form DS-260).",
			"5. Assemble and Submit Documents: Gather and upload all required financial and civil documents.",
			"6. Medical Examination: Schedule and complete a medical exam with an approved panel physician.",
			"7. Attend Interview: Attend the visa interview at the U.S. Consulate General in Barcelona, Spain.",
		),
		visa.GovDocs: visa.EntryContent(
			visa.Entry{
				Name:        "Form I-130, Petition for Alien Relative",
				Link:        "https://www.uscis.gov/i-130",
				Description: "The initial petition filed by the U.S. citizen spouse.",
			},
			visa.Entry{
				Name:        "Form DS-260, Immigrant Visa Application",
				Link:        "https://ceac.state.gov/iv/",
				Description: "The main online application for the immigrant visa.",
			},
		),
		visa.UserDocs: visa.TextContent(
			"Passport valid for at least 6 months beyond your intended date of entry into the U.S.",
			"Birth Certificate",
			"Marriage Certificate",
			"Police Certificates from all countries of residence for more than 6 months since age 16.",
			"Sponsor's Affidavit of Support (Form I-864) with supporting financial evidence.",
			"Passport-style photographs.",
		),
		visa.GovLinks: visa.EntryContent(
			visa.Entry{
				Name:    "CEAC Login",
				Link:    "https://ceac.state.gov/IV/Login.aspx",
				Purpose: "To complete the DS-260 form and check case status.",
			},
			visa.Entry{
				Name:    "U.S. Consulate General Barcelona",
				Link:    "https://es.usembassy.gov/embassy-consulates/barcelona/",
				Purpose: "The processing post for residents of Andorra.",
			},
		),
		visa.Doctors: visa.EntryContent(
			visa.Entry{
				Name:             "Centro Médico Teknon",
				Address:          "Carrer de Vilana, 12, 08022 Barcelona, Spain",
				Phone:            "+34 932 90 62 00",
				InstructionsLink: "https://www.teknon.es/en/international-patient-services",
			},
			visa.Entry{
				Name:             "Hospital Universitari General de Catalunya",
				Address:          "Carrer de Pedro i Pons, 1, 08034 Barcelona, Spain",
				Phone:            "+34 932 54 24 00",
				InstructionsLink: "https://www.hgc.es/en",
			},
		),
	})
}

// MockSource is the built-in data source, it only knows IR-1 visas at the
// Barcelona post.
func MockSource() StaticSource {
	return NewStaticSource(map[posts.ID]map[string]visa.Record{
		"barcelona": {
			"IR-1": andorraIR1(),
		},
	})
}
