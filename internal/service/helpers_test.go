package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/clinrec-advisor/internal/domain"
	"github.com/clinrec-advisor/internal/knowledge"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func loadTestKB(t *testing.T, doc string) *domain.KnowledgeBase {
	t.Helper()
	kb, err := knowledge.NewLoader(newTestLogger()).Parse([]byte(doc))
	require.NoError(t, err)
	return kb
}

func requiredFactor(name, required string) *domain.Factor {
	value := domain.StringValue(required)
	return &domain.Factor{
		Name:       name,
		Required:   value,
		Normalized: domain.NormalizeValue(value),
	}
}

func substancePlan(names ...string) *domain.TreatmentPlan {
	option := &domain.TreatmentOption{Name: "Схема", Pharmacological: true}
	for _, name := range names {
		option.Substances = append(option.Substances, &domain.Substance{Name: name})
	}
	return &domain.TreatmentPlan{Options: []*domain.TreatmentOption{option}}
}

func patient(pairs ...string) domain.PatientData {
	p := domain.PatientData{}
	for i := 0; i+1 < len(pairs); i += 2 {
		p[pairs[i]] = domain.StringValue(pairs[i+1])
	}
	return p
}

const hepatitisKB = `{
  "КлинРек II ур": {
    "Заболевание": {
      "Хронический вирусный гепатит C": {
        "Стадия": {
          "Общая схема": {
            "Инструкция": {
              "1": {
                "План лечебных действий": {
                  "вариант лечения": {
                    "Пангенотипная схема": {
                      "Фармакологическое лечение": {
                        "Действующее вещество": {"Софосбувир": {"Режим": "400 мг 1 раз в сутки"}}
                      }
                    }
                  }
                }
              }
            }
          }
        }
      },
      "Артериальная гипертензия": {
        "Вариант течения (функциональный класс)": {
          "Общая": {
            "Инструкция": [
              {
                "План лечебных действий": {
                  "Цель": {"Снижение АД": {"Действие": {"Контроль АД": {"Наблюдение": ["АД < 140/90"]}}}}
                }
              }
            ]
          },
          "Резистентная": {
            "Инструкция": {
              "1": {
                "Категория пациента": {
                  "Фактор": {"Неэффективность антигипертензивной терапии": {"value": "да"}},
                  "Наблюдение": ["Суточное мониторирование АД"]
                },
                "План лечебных действий": {
                  "вариант лечения": {
                    "Тройная терапия": {
                      "Фармакологическое лечение": {
                        "Комбинация": {"Фиксированная": {"Действующее вещество": ["Амлодипин", "Индапамид", "Периндоприл"]}}
                      }
                    }
                  }
                }
              }
            }
          }
        }
      },
      "Мигрень": {
        "Стадия": {
          "Хроническая": {
            "Инструкция": {
              "1": {"Категория пациента": {"Фактор": {"Неэффективность анальгетиков": {"value": "да"}}}}
            }
          }
        }
      }
    }
  }
}`

const transplantKB = `{
  "КлинРек II ур": {
    "Заболевание": {
      "Хронический вирусный гепатит C": {
        "Стадия": {
          "Компенсированная": {
            "Инструкция": {
              "1": {
                "Категория пациента": {"Фактор": {"Трансплантация печени": {"value": "не проводилась"}}},
                "План лечебных действий": {
                  "вариант лечения": {
                    "Схема": {"Фармакологическое лечение": {"Действующее вещество": ["Софосбувир", "Велпатасвир"]}}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`
