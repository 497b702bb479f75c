package quiz

// SeedQuestions - стартовый банк вопросов.
func SeedQuestions() map[string][]Question {
	return map[string][]Question{
		"Algebra": {
			{
				Text:        "Solve: 2x + 5 = 15",
				Options:     []string{"x=5", "x=10", "x=2.5"},
				Answer:      "x=5",
				Difficulty:  DifficultyEasy,
				Hint:        "Isolate the variable x by performing inverse operations.",
				Explanation: "First subtract 5 from both sides: 2x = 10. Then divide both sides by 2: x = 5.",
			},
			{
				Text:        "What is the slope of the line y = 3x - 7?",
				Options:     []string{"3", "-7", "7"},
				Answer:      "3",
				Difficulty:  DifficultyEasy,
				Hint:        "The equation is in slope-intercept form: y = mx + b",
				Explanation: "In the form y = mx + b, m is the slope and b is the y-intercept. Here, m = 3.",
			},
			{
				Text:        "Factor the expression: x² - 4",
				Options:     []string{"(x-2)(x+2)", "(x-2)(x-2)", "(x+4)(x-1)"},
				Answer:      "(x-2)(x+2)",
				Difficulty:  DifficultyMedium,
				Hint:        "This is a difference of squares pattern.",
				Explanation: "The difference of squares formula is a² - b² = (a-b)(a+b). Here, x² - 4 = (x-2)(x+2).",
			},
			{
				Text:        "Simplify: 3(x + 2) - 2(x - 1)",
				Options:     []string{"x + 8", "x + 4", "5x + 8"},
				Answer:      "x + 8",
				Difficulty:  DifficultyMedium,
				Hint:        "Distribute first, then combine like terms.",
				Explanation: "3(x+2) - 2(x-1) = 3x + 6 - 2x + 2 = x + 8",
			},
			{
				Text:        "If f(x) = 2x + 3, what is f(5)?",
				Options:     []string{"13", "10", "8"},
				Answer:      "13",
				Difficulty:  DifficultyEasy,
				Hint:        "Substitute x = 5 into the function.",
				Explanation: "f(5) = 2(5) + 3 = 10 + 3 = 13",
			},
		},
		"Calculus": {
			{
				Text:        "What is the derivative of x²?",
				Options:     []string{"2x", "x", "x³/3"},
				Answer:      "2x",
				Difficulty:  DifficultyEasy,
				Hint:        "Use the power rule for derivatives.",
				Explanation: "The power rule states d/dx(x^n) = nx^(n-1). For x², the derivative is 2x.",
			},
			{
				Text:        "What is the integral of 3x² dx?",
				Options:     []string{"x³ + C", "6x + C", "3x³ + C"},
				Answer:      "x³ + C",
				Difficulty:  DifficultyMedium,
				Hint:        "Use the reverse power rule.",
				Explanation: "The integral of x^n is x^(n+1)/(n+1). For 3x², it becomes x³ + C.",
			},
			{
				Text:        "What is the derivative of sin(x)?",
				Options:     []string{"cos(x)", "-cos(x)", "tan(x)"},
				Answer:      "cos(x)",
				Difficulty:  DifficultyMedium,
				Hint:        "This is a standard trigonometric derivative.",
				Explanation: "The derivative of sin(x) is cos(x).",
			},
			{
				Text:        "What is the limit of (x² - 1)/(x - 1) as x approaches 1?",
				Options:     []string{"2", "1", "undefined"},
				Answer:      "2",
				Difficulty:  DifficultyHard,
				Hint:        "Factor the numerator first.",
				Explanation: "(x²-1)/(x-1) = x+1. As x→1, the limit is 2.",
			},
		},
		"Statistics": {
			{
				Text:        "What is the mean of the numbers 2, 4, 6?",
				Options:     []string{"4", "3", "5"},
				Answer:      "4",
				Difficulty:  DifficultyEasy,
				Hint:        "The mean is the average of the numbers.",
				Explanation: "The sum is 2+4+6=12. The count is 3. The mean is 12 / 3 = 4.",
			},
			{
				Text:        "What measure of central tendency is the middle value in a sorted dataset?",
				Options:     []string{"Median", "Mean", "Mode"},
				Answer:      "Median",
				Difficulty:  DifficultyEasy,
				Hint:        "Think \"middle\".",
				Explanation: "The median is the value separating the higher half from the lower half of a data sample.",
			},
			{
				Text:        "What is the mode of the dataset: 3, 5, 5, 7, 9?",
				Options:     []string{"5", "3", "7"},
				Answer:      "5",
				Difficulty:  DifficultyEasy,
				Hint:        "The mode is the most frequent value.",
				Explanation: "The mode is the value that appears most frequently. Here, 5 appears twice.",
			},
			{
				Text:        "In a normal distribution, what percentage of data falls within one standard deviation?",
				Options:     []string{"68%", "95%", "99.7%"},
				Answer:      "68%",
				Difficulty:  DifficultyMedium,
				Hint:        "This is part of the 68-95-99.7 rule.",
				Explanation: "Approximately 68% of data falls within one standard deviation of the mean.",
			},
		},
		"Geometry": {
			{
				Text:        "What is the area of a circle with radius r?",
				Options:     []string{"πr²", "2πr", "πr"},
				Answer:      "πr²",
				Difficulty:  DifficultyEasy,
				Hint:        "Area involves squaring the radius.",
				Explanation: "The formula for the area of a circle is A = πr².",
			},
			{
				Text:        "The sum of the angles in a triangle is:",
				Options:     []string{"180°", "90°", "360°"},
				Answer:      "180°",
				Difficulty:  DifficultyEasy,
				Hint:        "A fundamental property of Euclidean geometry.",
				Explanation: "The sum of the interior angles of any triangle is always 180 degrees.",
			},
			{
				Text:        "What is the volume of a cube with side length s?",
				Options:     []string{"s³", "s²", "6s²"},
				Answer:      "s³",
				Difficulty:  DifficultyEasy,
				Hint:        "Volume involves three dimensions.",
				Explanation: "The volume of a cube is side × side × side = s³.",
			},
			{
				Text:        "What is the Pythagorean theorem?",
				Options:     []string{"a² + b² = c²", "a + b = c", "a² - b² = c²"},
				Answer:      "a² + b² = c²",
				Difficulty:  DifficultyEasy,
				Hint:        "Relates the sides of a right triangle.",
				Explanation: "In a right triangle, the square of the hypotenuse equals the sum of squares of the other two sides.",
			},
			{
				Text:        "What is the circumference of a circle with radius r?",
				Options:     []string{"2πr", "πr²", "πr"},
				Answer:      "2πr",
				Difficulty:  DifficultyEasy,
				Hint:        "Circumference is the distance around the circle.",
				Explanation: "The circumference formula is C = 2πr or C = πd, where d is the diameter.",
			},
		},
	}
}

// SeedBank собирает стартовый банк с финальным тестом по два вопроса из каждой темы.
func SeedBank() *MapBank {
	b := NewMapBank(SeedQuestions(), nil)
	b.final = BuildFinalExam(b, 2)
	return b
}
