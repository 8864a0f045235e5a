package dialog

import (
	"fmt"
	"strings"

	"tripchat/internal/modules/slots"
)

var slotQuestions = map[slots.Name]string{
	slots.FromCity:      "Из какого города вы выезжаете?",
	slots.ToCity:        "В какой город вы хотите поехать?",
	slots.Date:          "На какую дату планируете поездку?",
	slots.Passengers:    "Сколько пассажиров?",
	slots.TransportType: "Какой способ передвижения предпочитаете (поезд, автобус, самолет)?",
}

const (
	textStart            = "Пожалуйста, опишите ваш запрос для начала бронирования."
	textCityQuestion     = "Вы имели в виду город %s? (да/нет)"
	textCityRetry        = "Пожалуйста, введите город ещё раз."
	textCityRequired     = "Пожалуйста, укажите город."
	textWhatToFix        = "Что вы хотите исправить? (город отправления, город прибытия, дата, количество пассажиров, тип транспорта)"
	textCorrectionPrompt = "Не понял, что нужно исправить. Напишите новое значение, например «дата 20.09», или назовите поле: город отправления, город прибытия, дата, количество пассажиров, тип транспорта."
	textClarify          = "Пожалуйста, уточните детали поездки."
	textBooked           = "Спасибо! Ваша заявка принята и будет обработана."
	textNotUnderstood    = "Я не смог распознать ваш ответ."
)

// SlotQuestion returns the canned question for a slot.
func SlotQuestion(n slots.Name) string {
	return slotQuestions[n]
}

func orderLines(s slots.State) string {
	return fmt.Sprintf("Город отправления: %s\nГород прибытия: %s\nДата: %s\nПассажиров: %d\nТранспорт: %s",
		s.FromCity, s.ToCity, s.Date, s.Passengers, s.TransportType)
}

func summaryText(s slots.State) string {
	return "Проверьте, пожалуйста, все данные заказа:\n" + orderLines(s) + "\n\nВсё верно? (да/нет)"
}

func bookedText(s slots.State) string {
	return textBooked + "\n" + orderLines(s)
}

func fallbackText(s slots.State) string {
	if n, ok := s.Missing(); ok {
		return textNotUnderstood + " Пожалуйста, уточните: " + SlotQuestion(n)
	}
	return textNotUnderstood
}

var resetCommands = map[string]bool{
	"начать заново": true,
	"restart":       true,
	"сброс":         true,
}

func isReset(message string) bool {
	return resetCommands[strings.ToLower(strings.TrimSpace(message))]
}
