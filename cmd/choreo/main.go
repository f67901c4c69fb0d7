package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/ivlev/choreo/internal/config"
	"github.com/ivlev/choreo/internal/director"
	"github.com/ivlev/choreo/internal/document"
	"github.com/ivlev/choreo/internal/planner"
)

// Подставляется при сборке через -ldflags.
var buildVersion = "dev"

func main() {
	inputPtr := flag.String("input", "", "Путь к документу команд (.yaml или .json)")
	outputPtr := flag.String("output", "", "Путь к документу ключевых кадров (если пусто, генерируется автоматически)")
	formatPtr := flag.String("format", "yaml", "Формат вывода: yaml, json")
	fpsPtr := flag.Int("fps", 0, "FPS (0 - берется из документа команд)")
	durationPtr := flag.Float64("duration", 0, "Общая длительность плана в секундах (0 - из документа)")
	strictPtr := flag.Bool("strict", true, "Строгая проверка таймлайна (ошибки на разрывах)")
	statsPtr := flag.Bool("stats", false, "Показать отчет о производительности")
	waypointsPtr := flag.String("waypoints", "", "Путь для экспорта таблицы путевых точек (опционально)")

	flag.Parse()

	if *inputPtr == "" {
		log.Fatalf("[-] Ошибка: укажите документ команд через -input")
	}

	p, err := document.LoadPlan(*inputPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка чтения документа команд: %v", err)
	}
	if *fpsPtr > 0 {
		p.FPS = *fpsPtr
	}
	if *durationPtr > 0 {
		p.Duration = *durationPtr
	}
	fmt.Printf("[*] План: %s | Актеров: %d | %.2fs @ %d FPS\n", p.Name, len(p.Actors), p.Duration, p.FPS)

	cfg := config.Default()
	cfg.FPS = p.FPS
	cfg.TotalDuration = p.Duration
	cfg.Strict = *strictPtr
	cfg.ShowStats = *statsPtr
	cfg.BuildVersion = buildVersion

	doc, stats, err := director.Compile(p, cfg)
	if err != nil {
		log.Fatalf("[-] Ошибка компиляции: %v", err)
	}
	fmt.Printf("[*] Скомпилировано: %d ключевых кадров, %d кадров всего\n", doc.KeyframeCount(), doc.TotalFrames)

	output := *outputPtr
	if output == "" {
		base := filepath.Base(*inputPtr)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		output = fmt.Sprintf("%s_keyframes_%s.%s", name, timestamp, *formatPtr)
	}
	if err := doc.Write(output, *formatPtr); err != nil {
		log.Fatalf("[-] Ошибка записи результата: %v", err)
	}

	if *waypointsPtr != "" {
		// Повторное разрешение дешево: план крошечный, стадия чистая.
		res, err := planner.Resolve(p)
		if err == nil {
			err = document.WriteWaypoints(res, *waypointsPtr)
		}
		if err != nil {
			log.Printf("[!] Не удалось экспортировать путевые точки: %v", err)
		} else {
			fmt.Printf("[*] Путевые точки: %s\n", *waypointsPtr)
		}
	}

	if cfg.ShowStats {
		fmt.Print(stats.Report())
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", output)
}
