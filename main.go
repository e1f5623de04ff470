package main

import (
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	_ "nltuScheduleApi/docs"

	"github.com/gin-contrib/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title NLTU Schedule API
// @version 1.0
// @description API for parsing the NLTU timetable from Google Sheets.
// @host localhost:8080
// @BasePath /
func main() {
	if len(os.Args) > 1 && os.Args[1] == "sync" {
		if err := runSync(); err != nil {
			log.Fatalf("❌ Sync failed: %v", err)
		}
		log.Println("✅ Sync finished")
		return
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://nltu-schedule.vercel.app"}, // frontend
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/schedules", handleGetSchedules)
	router.GET("/teachers", handleGetTeachersSchedules)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server running at http://localhost:%s", port)
	router.Run(":" + port)
}

// @Summary Parse the students schedule sheet
// @Tags Schedule
// @Produce json
// @Param sheet_url query string true "Google Sheets URL (/edit, /export?format=csv|xlsx or /pubhtml)"
// @Success 200 {object} map[string]EntitySchedule
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /schedules [get]
func handleGetSchedules(c *gin.Context) {
	respondSchedule(c, false)
}

// @Summary Parse the teachers schedule sheet
// @Tags Schedule
// @Produce json
// @Param sheet_url query string true "Google Sheets URL (/edit, /export?format=csv|xlsx or /pubhtml)"
// @Success 200 {object} map[string]EntitySchedule
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /teachers [get]
func handleGetTeachersSchedules(c *gin.Context) {
	respondSchedule(c, true)
}

func respondSchedule(c *gin.Context, teachers bool) {
	sheetURL := c.Query("sheet_url")
	if sheetURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sheet_url query parameter is required"})
		return
	}

	grid, err := loadSheet(sheetURL, teachers)
	if err != nil {
		respondScheduleError(c, err)
		return
	}

	var schedule *Schedule
	if teachers {
		schedule, err = buildTeachersSchedule(grid)
	} else {
		schedule, err = buildStudentsSchedule(grid)
	}
	if err != nil {
		respondScheduleError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// The sheet is upstream data, so everything except a bad sheet_url is a
// server-side failure: transport problems map to 502, malformed sheet content
// to 500. The offending cell text rides inside the logged error.
func respondScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBadSheetURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrFetchSchedule):
		log.Println("❌", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not retrieve the schedule sheet. Try again later."})
	case errors.Is(err, ErrInvalidEventFormat):
		log.Println("⚠️", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid event format, please contact the developer"})
	default:
		log.Println("⚠️", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Malformed schedule data, please contact the developer"})
	}
}
