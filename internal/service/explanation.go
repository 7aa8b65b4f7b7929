package service

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/clinrec-advisor/internal/domain"
)

// ExplanationService matches a patient against the protocol tree and renders
// the ranked report. It holds no per-request state and may be shared.
type ExplanationService struct {
	logger    *logrus.Logger
	enhancer  *PatientEnhancer
	checker   *ContradictionChecker
	evaluator *MatchEvaluator
}

// NewExplanationService creates a new explanation service. A nil rule table
// selects the built-in contradiction rules.
func NewExplanationService(logger *logrus.Logger, surgicalPolicy string, rules []domain.ContradictionRule) *ExplanationService {
	checker := NewContradictionChecker(rules)
	logger.WithField("contradiction_rules", len(checker.Rules())).Debug("Explanation service ready")
	return &ExplanationService{
		logger:    logger,
		enhancer:  NewPatientEnhancer(logger, surgicalPolicy),
		checker:   checker,
		evaluator: NewMatchEvaluator(checker),
	}
}

// EnhancePatient adds derived attributes to the patient map in place.
func (s *ExplanationService) EnhancePatient(patient domain.PatientData) domain.PatientData {
	return s.enhancer.Enhance(patient)
}

// Explain runs the full analysis. The patient map is enhanced in place. It never
// returns nil: input problems and internal failures are reported as report
// lines with ErrorCode set.
func (s *ExplanationService) Explain(patient domain.PatientData, kb *domain.KnowledgeBase) (analysis *domain.Analysis) {
	startTime := time.Now()
	analysis = &domain.Analysis{
		ID:        uuid.New().String(),
		Patient:   patient,
		CreatedAt: startTime.UTC(),
	}

	if len(patient) == 0 {
		analysis.ErrorCode = domain.ErrMissingInput
		analysis.Report = []string{MissingInputMessage}
		return analysis
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"analysis_id": analysis.ID,
				"panic":       r,
			}).Error("Analysis aborted")
			analysis.ErrorCode = domain.ErrAnalysisFailure
			analysis.Report = append(analysis.Report, AnalysisFailureMessage)
		}
	}()

	// Step 1: Derive auxiliary attributes
	s.enhancer.Enhance(patient)

	// Step 2: Resolve the diagnosis
	diagnosis, ok := patientDiagnosis(patient)
	if !ok {
		analysis.ErrorCode = domain.ErrMissingInput
		analysis.Report = []string{NoDiagnosisMessage}
		return analysis
	}

	if kb == nil {
		kb = &domain.KnowledgeBase{}
	}
	disease, diseaseName := FindDiseaseNode(kb, diagnosis)
	if disease == nil {
		s.logger.WithFields(logrus.Fields{
			"analysis_id": analysis.ID,
			"diagnosis":   diagnosis.Display(),
		}).Info("Diagnosis not found in knowledge base")
		analysis.ErrorCode = domain.ErrUnresolvedDiagnosis
		analysis.Report = unresolvedDiagnosisReport(diagnosis.Display(), kb.DiseaseNames())
		return analysis
	}
	analysis.Disease = diseaseName
	analysis.Report = append(analysis.Report, reportHeader(diseaseName)...)

	// Step 3: Evaluate every instruction of the ranked variants
	analysis.RawCandidates = s.evaluateDisease(analysis.ID, patient, disease)

	// Step 4: Build the candidate pool
	analysis.Candidates = rankCandidates(analysis.RawCandidates)

	// Step 5: Render
	writeCandidates(analysis)
	writePatientSummary(analysis, patient)

	s.logger.WithFields(logrus.Fields{
		"analysis_id":   analysis.ID,
		"disease":       diseaseName,
		"evaluated":     len(analysis.RawCandidates),
		"candidates":    len(analysis.Candidates),
		"processing_ms": time.Since(startTime).Milliseconds(),
	}).Info("Analysis completed")

	return analysis
}

// evaluateDisease scores all instructions of the disease in section order, with
// variants ordered by specificity. Hard contradictions keep their extracted
// treatments so they reach the report as unsuitable candidates.
func (s *ExplanationService) evaluateDisease(analysisID string, patient domain.PatientData, disease *domain.Disease) []domain.Candidate {
	var candidates []domain.Candidate
	for _, kind := range domain.SectionKinds {
		section := disease.Section(kind)
		if section == nil {
			continue
		}
		for _, ranked := range RankVariants(section.Variants) {
			for _, instruction := range ranked.Variant.Instructions {
				result := s.evaluator.Evaluate(patient, instruction)
				candidate := domain.Candidate{
					Disease:          disease.Name,
					Section:          kind,
					Variant:          ranked.Variant.Name,
					InstructionIndex: instruction.Index,
					Specificity:      ranked.Specificity,
					Result:           result,
					Treatments:       ExtractTreatments(instruction.Plan),
					Severity:         domain.SeverityFor(result),
				}

				s.logger.WithFields(logrus.Fields{
					"analysis_id": analysisID,
					"section":     kind,
					"variant":     candidate.Variant,
					"instruction": candidate.InstructionIndex,
					"score":       result.Score,
					"hard":        result.HardContradiction,
				}).WithFields(candidate.Severity.LogFields()).Debug("Evaluated instruction")

				candidates = append(candidates, candidate)
			}
		}
	}
	return candidates
}

// rankCandidates keeps the qualifying candidates sorted by score, highest
// first. Equal scores keep evaluation order.
func rankCandidates(raw []domain.Candidate) []domain.Candidate {
	pool := make([]domain.Candidate, 0, len(raw))
	for i := range raw {
		if raw[i].Qualifies() {
			pool = append(pool, raw[i])
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Result.Score > pool[j].Result.Score
	})
	return pool
}

// patientDiagnosis returns the first non-empty diagnosis field.
func patientDiagnosis(patient domain.PatientData) (domain.Value, bool) {
	for _, field := range []string{FieldDiagnosis, FieldDiagnosisShort} {
		if v, ok := patient.Get(field); ok && NormalizeDiagnosisName(v) != "" {
			return v, true
		}
	}
	return domain.Value{}, false
}
