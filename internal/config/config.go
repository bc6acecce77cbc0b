// Package config предоставляет функциональность для управления конфигурацией приложения.
// Поддерживает загрузку настроек из переменных окружения и флагов командной строки,
// с приоритетом переменных окружения над флагами.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
)

// ConfigStruct описывает формат JSON-файла конфигурации сервера.
type ConfigStruct struct {
	Addr          string `json:"address"`
	StoreInterval int    `json:"store_interval"`
	FileStorage   string `json:"file_storage_path"`
	Restore       bool   `json:"restore"`
	AddrDB        string `json:"database_dsn"`
	AuthURL       string `json:"auth_url"`
	Users         string `json:"users"`
	AuditFile     string `json:"audit_file"`
	AuditURL      string `json:"audit_url"`
}

// Config содержит все параметры конфигурации сервера временных рядов.
// Значения загружаются из переменных окружения (указаны в тегах env)
// или из флагов командной строки, если переменные окружения не установлены.
type Config struct {
	// Addr задает адрес и порт HTTP-сервера (например, "localhost:8080").
	Addr string `env:"ADDRESS"`

	// StoreInterval определяет интервал в секундах между автоматическими снапшотами рядов на диск.
	// Значение 0 отключает периодическое сохранение.
	StoreInterval int `env:"STORE_INTERVAL"`

	// FileStorage указывает путь к файлу для снапшотов рядов на диске.
	FileStorage string `env:"FILE_STORAGE_PATH"`

	ConfigFilePath string `env:"CONFIG"`

	// Restore определяет, нужно ли восстанавливать ряды из файла при запуске сервера.
	Restore bool `env:"RESTORE"`

	// AddrDB содержит строку подключения к базе данных PostgreSQL (DSN).
	// Если не указано, используется хранилище в памяти.
	AddrDB string `env:"DATABASE_DSN"`

	// AuthURL содержит адрес внешнего сервиса аутентификации.
	// Пустое значение переключает проверку на статический список Users.
	AuthURL string `env:"AUTH_URL"`

	// Users содержит статический список пользователей вида "identity:secret,identity:secret".
	// Используется только когда AuthURL не задан.
	Users string `env:"USERS"`

	// AuditFile указывает путь к файлу для записи аудит-логов.
	AuditFile string `env:"AUDIT_FILE"`

	// AuditURL содержит URL для отправки аудит-событий на внешний сервис.
	AuditURL string `env:"AUDIT_URL"`
}

func NewConfigStruct() *ConfigStruct {
	return &ConfigStruct{}
}

// GetConfig загружает и возвращает конфигурацию приложения.
// Сначала обрабатываются флаги командной строки, затем переменные окружения.
// Переменные окружения имеют приоритет над флагами, флаги — над файлом конфигурации.
//
// Поддерживаемые флаги:
//
//	-a: адрес сервера (по умолчанию "localhost:8080")
//	-i: интервал сохранения в секундах (по умолчанию "300")
//	-f: путь к файлу снапшотов (по умолчанию "storage.json")
//	-r: восстанавливать ли ряды при запуске (по умолчанию "false")
//	-d: строка подключения к базе данных (по умолчанию "")
//	-auth: адрес сервиса аутентификации (по умолчанию "")
//	-users: статический список пользователей (по умолчанию "")
//
// Соответствующие переменные окружения:
//
//	ADDRESS, STORE_INTERVAL, FILE_STORAGE_PATH, RESTORE,
//	DATABASE_DSN, AUTH_URL, USERS
func GetConfig() (Config, error) {
	configStruct := NewConfigStruct()

	addrFlag := flag.String("a", "localhost:8080", "HTTP server address")
	storeIntFlag := flag.String("i", "300", "store interval in seconds")
	fileFlag := flag.String("f", "storage.json", "path to snapshot file")
	configPathFlag := flag.String("config", "", "path to config file")
	restoreFlag := flag.String("r", "false", "restore series from file on startup (true/false)")
	addrDBFlag := flag.String("d", "", "Database address")
	authURLFlag := flag.String("auth", "", "authentication service URL")
	usersFlag := flag.String("users", "", "static users list (identity:secret,...)")
	auditFile := flag.String("p", "", "audit file path")
	auditURL := flag.String("u", "", "audit url")

	flag.Parse()

	configPath := getConfigPath(*configPathFlag, os.Getenv("CONFIG"))

	if configPath != "" {
		data, err := os.Open(configPath)
		if err != nil {
			log.Printf("Не удалось открыть файл: %v", err)
		} else {
			defer data.Close()
			if err := json.NewDecoder(data).Decode(configStruct); err != nil {
				log.Printf("Не удалось разобрать файл конфигурации: %v", err)
			}
		}
	}

	cfg := Config{
		Addr:          getString(os.Getenv("ADDRESS"), *addrFlag, configStruct.Addr),
		FileStorage:   getString(os.Getenv("FILE_STORAGE_PATH"), *fileFlag, configStruct.FileStorage),
		StoreInterval: getInt(os.Getenv("STORE_INTERVAL"), *storeIntFlag, configStruct.StoreInterval),
		Restore:       getBool(os.Getenv("RESTORE"), *restoreFlag, configStruct.Restore),
		AddrDB:        getString(os.Getenv("DATABASE_DSN"), *addrDBFlag, configStruct.AddrDB),
		AuthURL:       getString(os.Getenv("AUTH_URL"), *authURLFlag, configStruct.AuthURL),
		Users:         getString(os.Getenv("USERS"), *usersFlag, configStruct.Users),
		AuditFile:     getString(os.Getenv("AUDIT_FILE"), *auditFile, configStruct.AuditFile),
		AuditURL:      getString(os.Getenv("AUDIT_URL"), *auditURL, configStruct.AuditURL),
	}

	return cfg, nil
}

// getString возвращает значение переменной окружения, если она установлена,
// иначе возвращает значение флага командной строки.
func getString(envValue, flagValue, configValue string) string {
	if envValue != "" {
		return envValue
	} else if flagValue != "" {
		return flagValue
	}

	return configValue
}

// getInt преобразует строковое значение переменной окружения или флага в целое число.
// Приоритет отдается переменной окружения. При ошибке преобразования возвращает 0.
func getInt(envValue, flagValue string, configValue int) int {
	if envValue != "" {
		if v, err := strconv.Atoi(envValue); err == nil {
			return v
		}
	} else if flagValue != "" {
		v, _ := strconv.Atoi(flagValue)
		return v
	}

	return configValue
}

// getBool преобразует строковое значение переменной окружения или флага в булево значение.
// Приоритет отдается переменной окружения. При ошибке преобразования возвращает false.
func getBool(envValue, flagValue string, configValue bool) bool {
	if envValue != "" {
		if v, err := strconv.ParseBool(envValue); err == nil {
			return v
		}
	} else if flagValue != "" {
		v, _ := strconv.ParseBool(flagValue)
		return v
	}
	return configValue
}

func getConfigPath(flagValue, envValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return envValue
}
