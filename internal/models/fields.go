package models

import "fmt"

// SchemaVersion selects the stage output formats and the set of output columns.
type SchemaVersion string

const (
	// SchemaV1 splits the analysis on a section header and asks for two recommendations.
	SchemaV1 SchemaVersion = "v1"
	// SchemaV2 extracts one bracketed justification per option and asks for three recommendations.
	SchemaV2 SchemaVersion = "v2"
)

// DefaultSchema is used when a job file does not name one.
const DefaultSchema = SchemaV2

// ParseSchemaVersion validates a schema name, defaulting blank to DefaultSchema.
func ParseSchemaVersion(s string) (SchemaVersion, error) {
	switch SchemaVersion(s) {
	case "":
		return DefaultSchema, nil
	case SchemaV1, SchemaV2:
		return SchemaVersion(s), nil
	default:
		return "", fmt.Errorf("unknown schema %q (supported: v1, v2)", s)
	}
}

// Input columns of the source workbook.
const (
	ColItemID          = "ItemId"
	ColContexto        = "ItemContexto"
	ColEnunciado       = "ItemEnunciado"
	ColComponente      = "ComponenteNombre"
	ColCompetencia     = "CompetenciaNombre"
	ColAfirmacion      = "AfirmacionNombre"
	ColEvidencia       = "EvidenciaNombre"
	ColTipologia       = "Tipologia Textual"
	ColGrado           = "ItemGradoId"
	ColAnalisisErrores = "Analisis_Errores"
	ColClave           = "AlternativaClave"
	ColOpcionA         = "OpcionA"
	ColOpcionB         = "OpcionB"
	ColOpcionC         = "OpcionC"
	ColOpcionD         = "OpcionD"
)

// Output columns written by the pipeline.
const (
	FieldQueEvalua             = "Que_Evalua"
	FieldJustificacionCorrecta = "Justificacion_Correcta"
	FieldAnalisisDistractores  = "Analisis_Distractores"
	FieldJustificacionA        = "Justificacion_A"
	FieldJustificacionB        = "Justificacion_B"
	FieldJustificacionC        = "Justificacion_C"
	FieldJustificacionD        = "Justificacion_D"
	FieldRecFortalecer         = "Recomendacion_Fortalecer"
	FieldRecAvanzar            = "Recomendacion_Avanzar"
	FieldOportunidadMejora     = "Oportunidad_Mejora"
)

// OptionLetters are the answer options every item carries.
var OptionLetters = []string{"A", "B", "C", "D"}

// OptionColumn returns the input column holding the text of option letter.
func OptionColumn(letter string) string {
	return "Opcion" + letter
}

// JustificationField returns the output column holding the justification of option letter.
func JustificationField(letter string) string {
	return "Justificacion_" + letter
}

// OutputFields lists the output columns of a schema version, in table order.
func OutputFields(v SchemaVersion) []string {
	switch v {
	case SchemaV1:
		return []string{
			FieldQueEvalua,
			FieldJustificacionCorrecta,
			FieldAnalisisDistractores,
			FieldRecFortalecer,
			FieldRecAvanzar,
		}
	default:
		return []string{
			FieldQueEvalua,
			FieldJustificacionCorrecta,
			FieldAnalisisDistractores,
			FieldJustificacionA,
			FieldJustificacionB,
			FieldJustificacionC,
			FieldJustificacionD,
			FieldRecFortalecer,
			FieldRecAvanzar,
			FieldOportunidadMejora,
		}
	}
}

// ErrorMarker is the uniform text written to every output field of a failed row.
func ErrorMarker(cause string) string {
	return "ERROR EN PROCESAMIENTO: " + cause
}
